package infra

import (
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/assertions"
	"github.com/aws/jsii-runtime-go"
	"github.com/stretchr/testify/require"
)

const testWebAclArn = "arn:aws:wafv2:us-east-1:123456789012:global/webacl/static-site-web-acl-test/0000"

func siteTemplate(t *testing.T, stage string) assertions.Template {
	t.Helper()
	app := testApp(stage)
	stack := NewStaticSiteStack(app, "static-site", &StaticSiteStackProps{
		WebAclArn: jsii.String(testWebAclArn),
	})
	return assertions.Template_FromStack(stack.(awscdk.Stack), nil)
}

func TestSiteBucketStaysPrivate(t *testing.T) {
	template := siteTemplate(t, "test")

	template.ResourceCountIs(jsii.String("AWS::S3::Bucket"), jsii.Number(1))
	template.HasResourceProperties(jsii.String("AWS::S3::Bucket"), map[string]interface{}{
		"PublicAccessBlockConfiguration": map[string]interface{}{
			"BlockPublicAcls":       true,
			"BlockPublicPolicy":     true,
			"IgnorePublicAcls":      true,
			"RestrictPublicBuckets": true,
		},
		"VersioningConfiguration": map[string]interface{}{
			"Status": "Enabled",
		},
		"BucketEncryption": map[string]interface{}{
			"ServerSideEncryptionConfiguration": []interface{}{
				map[string]interface{}{
					"ServerSideEncryptionByDefault": map[string]interface{}{
						"SSEAlgorithm": "AES256",
					},
				},
			},
		},
	})

	// EnforceSSL denies any request over plain HTTP.
	template.HasResourceProperties(jsii.String("AWS::S3::BucketPolicy"), map[string]interface{}{
		"PolicyDocument": assertions.Match_ObjectLike(&map[string]interface{}{
			"Statement": assertions.Match_ArrayWith(&[]interface{}{
				assertions.Match_ObjectLike(&map[string]interface{}{
					"Effect": "Deny",
					"Condition": map[string]interface{}{
						"Bool": map[string]interface{}{
							"aws:SecureTransport": "false",
						},
					},
				}),
			}),
		}),
	})
}

func TestDistributionWiring(t *testing.T) {
	template := siteTemplate(t, "test")

	template.ResourceCountIs(jsii.String("AWS::CloudFront::Distribution"), jsii.Number(1))
	template.HasResourceProperties(jsii.String("AWS::CloudFront::Distribution"), map[string]interface{}{
		"DistributionConfig": assertions.Match_ObjectLike(&map[string]interface{}{
			"DefaultRootObject": "index.html",
			"WebACLId":          testWebAclArn,
			"CustomErrorResponses": assertions.Match_ArrayWith(&[]interface{}{
				assertions.Match_ObjectLike(&map[string]interface{}{
					"ErrorCode":        404,
					"ResponseCode":     200,
					"ResponsePagePath": "/index.html",
				}),
			}),
		}),
	})

	// Exactly one origin, reachable only through the origin access identity.
	dists := template.FindResources(jsii.String("AWS::CloudFront::Distribution"), nil)
	require.Len(t, *dists, 1)
	for _, res := range *dists {
		props := (*res)["Properties"].(map[string]interface{})
		config := props["DistributionConfig"].(map[string]interface{})
		origins := config["Origins"].([]interface{})
		require.Len(t, origins, 1)

		origin := origins[0].(map[string]interface{})
		s3Config, ok := origin["S3OriginConfig"].(map[string]interface{})
		require.True(t, ok, "origin must be an s3 origin")
		require.Contains(t, s3Config, "OriginAccessIdentity")
	}
}

func TestAssetSyncPrunesOnTestStage(t *testing.T) {
	template := siteTemplate(t, "test")

	template.HasResourceProperties(jsii.String("Custom::CDKBucketDeployment"), map[string]interface{}{
		"Prune":          true,
		"RetainOnDelete": false,
	})
}

func TestAssetSyncKeepsRemoteObjectsWhenPruneDisabled(t *testing.T) {
	// Disabled via cdk.json (bool) or --context (string).
	for _, pruneCtx := range []interface{}{false, "false"} {
		app := awscdk.NewApp(&awscdk.AppProps{
			Context: &map[string]interface{}{
				"stage":          "test",
				"site_build_dir": "testdata/site",
				"prune":          pruneCtx,
			},
		})
		stack := NewStaticSiteStack(app, "static-site", &StaticSiteStackProps{
			WebAclArn: jsii.String(testWebAclArn),
		})
		template := assertions.Template_FromStack(stack.(awscdk.Stack), nil)

		template.HasResourceProperties(jsii.String("Custom::CDKBucketDeployment"), map[string]interface{}{
			"Prune": false,
		})
	}
}

func TestProductionRetainsAssetsAndLogs(t *testing.T) {
	template := siteTemplate(t, "production")

	template.HasResourceProperties(jsii.String("Custom::CDKBucketDeployment"), map[string]interface{}{
		"Prune":          true,
		"RetainOnDelete": true,
	})
	template.HasResource(jsii.String("AWS::S3::Bucket"), map[string]interface{}{
		"DeletionPolicy": "Retain",
	})
	// Site bucket plus the access log bucket.
	template.ResourceCountIs(jsii.String("AWS::S3::Bucket"), jsii.Number(2))
	template.HasResourceProperties(jsii.String("AWS::CloudFront::Distribution"), map[string]interface{}{
		"DistributionConfig": assertions.Match_ObjectLike(&map[string]interface{}{
			"Logging": assertions.Match_ObjectLike(&map[string]interface{}{
				"Prefix": "cdn-access/",
			}),
		}),
	})
}

func TestStageTablesCoverSameStages(t *testing.T) {
	require.Len(t, StageAccessLogging, len(StageRetainAssets))
	for stage := range StageRetainAssets {
		require.Contains(t, StageAccessLogging, stage)
	}
}
