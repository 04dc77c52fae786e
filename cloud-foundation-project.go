package main

import (
	"fmt"
	"os"

	"github.com/aleeza101/cloud-foundation-project/infra"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"
)

// validateContext rejects a stage outside the stage table and a rule table
// with colliding priorities before anything is synthesized.
func validateContext(stage string) error {
	if _, ok := infra.StageRetainAssets[stage]; !ok {
		return fmt.Errorf("unknown stage %s, need one of: %+v", stage, infra.StageRetainAssets)
	}
	return infra.ValidateRulePriorities(infra.ManagedRuleGroups)
}

func main() {
	defer jsii.Close()

	app := awscdk.NewApp(nil)

	stage := app.Node().TryGetContext(jsii.String("stage")).(string)
	if err := validateContext(stage); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	// The web ACL must exist before the distribution can attach it, and
	// CLOUDFRONT-scoped ACLs only deploy to us-east-1.
	wafConstruct, webAcl := infra.NewWebAclStack(app, "static-site-web-acl", &infra.WebAclStackProps{
		StackProps: awscdk.StackProps{
			Env:         env(),
			StackName:   jsii.String("StaticSiteWebAcl-" + stage),
			Description: jsii.String("managed waf rule groups for the site distribution"),
		},
	})
	_ = wafConstruct

	infra.NewStaticSiteStack(app, "static-site", &infra.StaticSiteStackProps{
		StackProps: awscdk.StackProps{
			Env:         env(),
			StackName:   jsii.String("StaticSite-" + stage),
			Description: jsii.String("private site bucket, cdn distribution, build output sync"),
		},
		WebAclArn: webAcl.AttrArn(),
	})

	awscdk.Tags_Of(app).Add(jsii.String("version"), jsii.String("1.0.0"), nil)
	awscdk.Tags_Of(app).Add(jsii.String("project"), jsii.String("cloud-foundation-project"), nil)

	app.Synth(nil)
}

// env determines the AWS environment (account+region) in which our stack is to
// be deployed. For more information see: https://docs.aws.amazon.com/cdk/latest/guide/environments.html
func env() *awscdk.Environment {
	// If unspecified, this stack will be "environment-agnostic".
	// Account/Region-dependent features and context lookups will not work, but a
	// single synthesized template can be deployed anywhere.
	//---------------------------------------------------------------------------
	return nil

	// Uncomment if you know exactly what account and region you want to deploy
	// the stack to. This is the recommendation for production stacks.
	//---------------------------------------------------------------------------
	// return &awscdk.Environment{
	//  Account: jsii.String("123456789012"),
	//  Region:  jsii.String("us-east-1"),
	// }

	// Uncomment to specialize this stack for the AWS Account and Region that are
	// implied by the current CLI configuration. This is recommended for dev
	// stacks.
	//---------------------------------------------------------------------------
	// return &awscdk.Environment{
	//  Account: jsii.String(os.Getenv("CDK_DEFAULT_ACCOUNT")),
	//  Region:  jsii.String(os.Getenv("CDK_DEFAULT_REGION")),
	// }
}
