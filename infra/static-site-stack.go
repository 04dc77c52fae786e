package infra

import (
	"strconv"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfront"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfrontorigins"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3deployment"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

type StaticSiteStackProps struct {
	awscdk.StackProps
	WebAclArn *string
}

// StageRetainAssets decides whether site content and buckets outlive the stack:
// dev/test tear everything down, pre/production keep uploaded assets even when
// the stack or the sync step is removed.
var StageRetainAssets = map[string]bool{
	"dev":        false,
	"test":       false,
	"pre":        true,
	"production": true,
}

var StageAccessLogging = map[string]bool{
	"dev":        false,
	"test":       false,
	"pre":        true,
	"production": true,
}

func NewStaticSiteStack(scope constructs.Construct, id string, props *StaticSiteStackProps) constructs.Construct {
	var sprops awscdk.StackProps
	if props != nil {
		sprops = props.StackProps
	}
	stack := awscdk.NewStack(scope, &id, &sprops)

	stage := stack.Node().TryGetContext(jsii.String("stage")).(string)
	site_build_dir := stack.Node().TryGetContext(jsii.String("site_build_dir")).(string)
	rootObject := "index.html"
	if v, ok := stack.Node().TryGetContext(jsii.String("default_root_object")).(string); ok {
		rootObject = v
	}
	// cdk.json supplies a bool, but --context values arrive as strings.
	prune := true
	switch v := stack.Node().TryGetContext(jsii.String("prune")).(type) {
	case bool:
		prune = v
	case string:
		if parsed, err := strconv.ParseBool(v); err == nil {
			prune = parsed
		}
	}

	retain := StageRetainAssets[stage]
	removal := awscdk.RemovalPolicy_DESTROY
	if retain {
		removal = awscdk.RemovalPolicy_RETAIN
	}

	// Private origin: no website hosting, no public access; the bucket is only
	// readable through the distribution's origin access identity.
	siteBucket := awss3.NewBucket(stack, jsii.String("siteBucket"), &awss3.BucketProps{
		BlockPublicAccess: awss3.BlockPublicAccess_BLOCK_ALL(),
		Encryption:        awss3.BucketEncryption_S3_MANAGED,
		EnforceSSL:        jsii.Bool(true),
		Versioned:         jsii.Bool(true),
		RemovalPolicy:     removal,
		AutoDeleteObjects: jsii.Bool(!retain),
	})

	distProps := &awscloudfront.DistributionProps{
		DefaultBehavior: &awscloudfront.BehaviorOptions{
			Origin:               awscloudfrontorigins.NewS3Origin(siteBucket, &awscloudfrontorigins.S3OriginProps{}),
			ViewerProtocolPolicy: awscloudfront.ViewerProtocolPolicy_REDIRECT_TO_HTTPS,
		},
		DefaultRootObject: jsii.String(rootObject),
		WebAclId:          props.WebAclArn,
		// S3 answers 403 for unknown keys behind an origin access identity, so
		// both map to the entry document.
		ErrorResponses: &[]*awscloudfront.ErrorResponse{
			{
				HttpStatus:         jsii.Number(403),
				ResponseHttpStatus: jsii.Number(200),
				ResponsePagePath:   jsii.String("/" + rootObject),
				Ttl:                awscdk.Duration_Minutes(jsii.Number(5)),
			},
			{
				HttpStatus:         jsii.Number(404),
				ResponseHttpStatus: jsii.Number(200),
				ResponsePagePath:   jsii.String("/" + rootObject),
				Ttl:                awscdk.Duration_Minutes(jsii.Number(5)),
			},
		},
		Comment: jsii.String("static site distribution " + stage),
	}

	if StageAccessLogging[stage] {
		logBucket := awss3.NewBucket(stack, jsii.String("accessLogBucket"), &awss3.BucketProps{
			BlockPublicAccess: awss3.BlockPublicAccess_BLOCK_ALL(),
			Encryption:        awss3.BucketEncryption_S3_MANAGED,
			EnforceSSL:        jsii.Bool(true),
			// CloudFront delivers logs via ACL.
			ObjectOwnership: awss3.ObjectOwnership_BUCKET_OWNER_PREFERRED,
			RemovalPolicy:   removal,
		})
		distProps.EnableLogging = jsii.Bool(true)
		distProps.LogBucket = logBucket
		distProps.LogFilePrefix = jsii.String("cdn-access/")
	}

	distribution := awscloudfront.NewDistribution(stack, jsii.String("siteDistribution"), distProps)

	// Reconciles build output into the bucket on every deploy and invalidates
	// the distribution cache.
	awss3deployment.NewBucketDeployment(stack, jsii.String("deploySiteAssets"), &awss3deployment.BucketDeploymentProps{
		Sources:           &[]awss3deployment.ISource{awss3deployment.Source_Asset(jsii.String(site_build_dir), nil)},
		DestinationBucket: siteBucket,
		Prune:             jsii.Bool(prune),
		RetainOnDelete:    jsii.Bool(retain),
		Distribution:      distribution,
		DistributionPaths: &[]*string{jsii.String("/*")},
	})

	awscdk.NewCfnOutput(stack, jsii.String("siteBucketName"), &awscdk.CfnOutputProps{
		Value: siteBucket.BucketName(),
	})
	awscdk.NewCfnOutput(stack, jsii.String("distributionId"), &awscdk.CfnOutputProps{
		Value: distribution.DistributionId(),
	})
	awscdk.NewCfnOutput(stack, jsii.String("distributionDomainName"), &awscdk.CfnOutputProps{
		Value: distribution.DistributionDomainName(),
	})

	return stack
}
