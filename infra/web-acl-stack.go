package infra

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awswafv2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

type WebAclStackProps struct {
	awscdk.StackProps
}

// ManagedRuleGroup references a vendor-maintained rule group by name; no rule
// logic is authored here.
type ManagedRuleGroup struct {
	Vendor   string
	Name     string
	Priority int
}

// Evaluated in ascending priority order. Override action "none" keeps each
// group's own block/count actions.
var ManagedRuleGroups = []ManagedRuleGroup{
	{Vendor: "AWS", Name: "AWSManagedRulesCommonRuleSet", Priority: 10},
	{Vendor: "AWS", Name: "AWSManagedRulesKnownBadInputsRuleSet", Priority: 20},
	{Vendor: "AWS", Name: "AWSManagedRulesAmazonIpReputationList", Priority: 30},
}

// ValidateRulePriorities rejects rule tables with duplicate priorities; WAF
// requires them to be pairwise distinct.
func ValidateRulePriorities(groups []ManagedRuleGroup) error {
	seen := map[int]string{}
	for _, g := range groups {
		if other, dup := seen[g.Priority]; dup {
			return fmt.Errorf("web acl rules %s and %s share priority %d", other, g.Name, g.Priority)
		}
		seen[g.Priority] = g.Name
	}
	return nil
}

func NewWebAclStack(scope constructs.Construct, id string, props *WebAclStackProps) (constructs.Construct, awswafv2.CfnWebACL) {
	var sprops awscdk.StackProps
	if props != nil {
		sprops = props.StackProps
	}
	stack := awscdk.NewStack(scope, &id, &sprops)
	stage := stack.Node().TryGetContext(jsii.String("stage")).(string)

	rules := make([]interface{}, 0, len(ManagedRuleGroups))
	for _, g := range ManagedRuleGroups {
		rules = append(rules, &awswafv2.CfnWebACL_RuleProperty{
			Name:     jsii.String(g.Name),
			Priority: jsii.Number(float64(g.Priority)),
			OverrideAction: &awswafv2.CfnWebACL_OverrideActionProperty{
				None: map[string]interface{}{},
			},
			Statement: &awswafv2.CfnWebACL_StatementProperty{
				ManagedRuleGroupStatement: &awswafv2.CfnWebACL_ManagedRuleGroupStatementProperty{
					VendorName: jsii.String(g.Vendor),
					Name:       jsii.String(g.Name),
				},
			},
			VisibilityConfig: &awswafv2.CfnWebACL_VisibilityConfigProperty{
				CloudWatchMetricsEnabled: jsii.Bool(true),
				MetricName:               jsii.String(g.Name),
				SampledRequestsEnabled:   jsii.Bool(true),
			},
		})
	}

	// CLOUDFRONT scope; this stack must deploy in us-east-1.
	webAcl := awswafv2.NewCfnWebACL(stack, jsii.String("siteWebAcl"), &awswafv2.CfnWebACLProps{
		Name:  jsii.String("static-site-web-acl-" + stage),
		Scope: jsii.String("CLOUDFRONT"),
		DefaultAction: &awswafv2.CfnWebACL_DefaultActionProperty{
			Allow: &awswafv2.CfnWebACL_AllowActionProperty{},
		},
		VisibilityConfig: &awswafv2.CfnWebACL_VisibilityConfigProperty{
			CloudWatchMetricsEnabled: jsii.Bool(true),
			MetricName:               jsii.String("static-site-web-acl-" + stage),
			SampledRequestsEnabled:   jsii.Bool(true),
		},
		Rules: rules,
	})

	awscdk.NewCfnOutput(stack, jsii.String("webAclArn"), &awscdk.CfnOutputProps{
		Value: webAcl.AttrArn(),
	})

	return stack, webAcl
}
