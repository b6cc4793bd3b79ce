package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/brickwatch/rita/internal/models"
	"github.com/brickwatch/rita/internal/version"
	"github.com/brickwatch/rita/pkg/agent"
	"github.com/brickwatch/rita/pkg/analytics"
	"github.com/brickwatch/rita/pkg/aws"
	"github.com/brickwatch/rita/pkg/dispatch"
	"github.com/brickwatch/rita/pkg/executor"
	"github.com/brickwatch/rita/pkg/formatter"
	"github.com/brickwatch/rita/pkg/money"
	"github.com/brickwatch/rita/pkg/policy"
	"github.com/brickwatch/rita/pkg/pricing"
	"github.com/brickwatch/rita/pkg/recommend"
	"github.com/brickwatch/rita/pkg/server"
	"github.com/brickwatch/rita/pkg/utils"
	"github.com/brickwatch/rita/pkg/workflow"
)

const defaultPort = "8080"

var supportedServices = map[string]models.ResourceType{
	"ec2":    models.ResourceEC2,
	"lambda": models.ResourceLambda,
	"s3":     models.ResourceS3,
	"rds":    models.ResourceRDS,
	"ebs":    models.ResourceEBS,
}

// Define service descriptions for help text
var serviceDescriptions = map[string]string{
	"ec2":    "Check EC2 instance types against the cost policy and Compute Optimizer",
	"lambda": "Check Lambda memory and reserved concurrency",
	"s3":     "Check S3 buckets for missing lifecycle policies",
	"rds":    "Check RDS instance classes against the cost policy",
	"ebs":    "Check EBS volume types against the cost policy",
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "rita",
		Short: "FinOps assistant for AWS cost analysis and rightsizing",
		Long: `rita analyzes AWS spend, evaluates resources against the company
cost policy, and drives rightsizing workflows.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newRecommendCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			info := version.Get()
			fmt.Printf("rita %s (commit: %s, built: %s, %s)\n",
				info.Version, info.GitCommit, info.BuildDate, info.GoVersion)
		},
	}
}

func newRecommendCmd() *cobra.Command {
	var (
		region      string
		services    []string
		limit       int
		listFlag    bool
		withPricing bool
	)

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Scan resources and print cost optimization recommendations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listFlag {
				printServiceList()
				return nil
			}

			if region == "" {
				region = utils.GetDefaultRegion()
			}
			if !utils.IsValidRegion(region) {
				return fmt.Errorf("invalid region %q", region)
			}

			resourceTypes, err := resolveServices(services)
			if err != nil {
				return err
			}

			return runRecommend(cmd.Context(), region, resourceTypes, limit, withPricing)
		},
	}

	cmd.Flags().StringVarP(&region, "region", "r", "",
		fmt.Sprintf("AWS region to scan (default: %s)", utils.GetDefaultRegion()))
	cmd.Flags().StringSliceVarP(&services, "services", "s", nil,
		"AWS services to check (comma separated, default: ec2,lambda,s3)")
	cmd.Flags().IntVar(&limit, "limit", recommend.DefaultLimit, "Maximum number of recommendations")
	cmd.Flags().BoolVarP(&listFlag, "list-services", "l", false, "List available services")
	cmd.Flags().BoolVar(&withPricing, "pricing", true, "Refine EC2 savings with live Pricing API data")

	return cmd
}

func printServiceList() {
	fmt.Println("Available services:")

	var serviceList []string
	for service := range supportedServices {
		serviceList = append(serviceList, service)
	}
	sort.Strings(serviceList)

	defaults := map[string]bool{"ec2": true, "lambda": true, "s3": true}
	for _, service := range serviceList {
		if defaults[service] {
			fmt.Printf("  %-8s - %s (default)\n", service, serviceDescriptions[service])
		} else {
			fmt.Printf("  %-8s - %s\n", service, serviceDescriptions[service])
		}
	}

	fmt.Println("\nExample usage:")
	fmt.Printf("  %s recommend --services ec2,rds,ebs\n", os.Args[0])
}

func resolveServices(services []string) ([]models.ResourceType, error) {
	if len(services) == 0 {
		return nil, nil // collector default: ec2, lambda, s3
	}

	resourceTypes := make([]models.ResourceType, 0, len(services))
	for _, service := range services {
		rt, ok := supportedServices[strings.ToLower(strings.TrimSpace(service))]
		if !ok {
			return nil, fmt.Errorf("unknown service %q (see --list-services)", service)
		}
		resourceTypes = append(resourceTypes, rt)
	}
	return resourceTypes, nil
}

func runRecommend(ctx context.Context, region string, resourceTypes []models.ResourceType, limit int, withPricing bool) error {
	fmt.Printf("Starting recommendation scan in %s (%s) ...\n", region, utils.GetRegionDescriptiveName(region))
	scanStartTime := time.Now()

	s := spinner.New(spinner.CharSets[9], 200*time.Millisecond)
	s.Suffix = " Analyzing resources against cost policy ..."
	s.Start()

	logger := newLogger()

	factory := aws.NewConfigFactory()
	cfg, err := factory.ReadConfig(ctx, region)
	if err != nil {
		s.Stop()
		return fmt.Errorf("error loading AWS config: %w", err)
	}

	collector := recommend.NewCollector(
		policy.Default(),
		aws.NewEC2Client(cfg),
		aws.NewLambdaClient(cfg),
		aws.NewS3Client(cfg),
		aws.NewRDSClient(cfg),
		aws.NewEBSClient(cfg),
		aws.NewComputeOptimizerClient(cfg),
		logger,
	)

	result := collector.Collect(ctx, recommend.Options{
		ResourceTypes: resourceTypes,
		Limit:         limit,
	})

	var priceSvc *pricing.Service
	if withPricing {
		priceSvc, err = pricing.NewFromDefaultConfig(ctx)
		if err != nil {
			logger.Warn("pricing API unavailable, keeping estimated savings", "error", err)
		} else {
			refineEC2Savings(ctx, priceSvc, region, result)
		}
	}

	scanDuration := time.Since(scanStartTime)
	s.FinalMSG = fmt.Sprintf("✓ [%d recommendation(s)] Resources analyzed - Completed in %.2f seconds\n",
		result.TotalRecommendations, scanDuration.Seconds())
	s.Stop()

	formatter.PrintRecommendationsTable(result, scanStartTime, scanDuration)
	if priceSvc != nil {
		formatter.PrintPricingAPIStats(priceSvc.APIStats())
	}
	return nil
}

// refineEC2Savings replaces estimated EC2 savings with the on-demand price
// delta between the current and recommended instance types, where the
// Pricing API has data for both.
func refineEC2Savings(ctx context.Context, svc *pricing.Service, region string, result *models.CollectionResult) {
	var total money.Amount
	for i := range result.Recommendations {
		rec := &result.Recommendations[i]
		if rec.ResourceType == models.ResourceEC2 && rec.RecommendedInstanceType != "" {
			current, currentSrc := svc.InstanceMonthlyCost(ctx, rec.CurrentInstanceType, region)
			target, targetSrc := svc.InstanceMonthlyCost(ctx, rec.RecommendedInstanceType, region)
			na := string(pricing.PricingSourceNA)
			if currentSrc != na && targetSrc != na && current > target {
				rec.EstimatedMonthlySavings = money.FromDollars(current - target)
			}
		}
		total += rec.EstimatedMonthlySavings
	}
	result.EstimatedTotalSavings = total
}

func newServeCmd() *cobra.Command {
	var (
		port   string
		region string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = os.Getenv("RITA_PORT")
			}
			if port == "" {
				port = defaultPort
			}
			if region == "" {
				region = utils.GetDefaultRegion()
			}
			if !utils.IsValidRegion(region) {
				return fmt.Errorf("invalid region %q", region)
			}
			return runServe(cmd.Context(), region, port)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Listen port (default: $RITA_PORT or 8080)")
	cmd.Flags().StringVarP(&region, "region", "r", "", "AWS region")

	return cmd
}

func runServe(ctx context.Context, region, port string) error {
	logger := newLogger()
	slog.SetDefault(logger)

	factory := aws.NewConfigFactory()

	readCfg, err := factory.ReadConfig(ctx, region)
	if err != nil {
		return fmt.Errorf("error loading read-tier AWS config: %w", err)
	}
	executorCfg, err := factory.ExecutorConfig(ctx, region)
	if err != nil {
		return fmt.Errorf("error loading executor-tier AWS config: %w", err)
	}

	analyzer := analytics.NewAnalyzer(aws.NewCostExplorerClient(readCfg), logger)
	optimizer := aws.NewComputeOptimizerClient(readCfg)

	exec := executor.New(
		aws.NewEC2Client(executorCfg),
		aws.NewLambdaClient(executorCfg),
		aws.NewS3Client(executorCfg),
		aws.NewRDSClient(executorCfg),
		aws.NewEBSClient(executorCfg),
		logger,
	)
	runner := workflow.NewRunner(workflow.NewRegistry(exec), logger)
	dispatcher := dispatch.New(runner, dispatch.NewStore(), dispatch.DefaultMaxConcurrent, logger)
	gateway := agent.New(aws.NewParameterStore(readCfg), agent.DefaultEndpointParam, logger)

	srv := server.New(analyzer, runner, dispatcher, gateway, optimizer, logger)

	logger.Info("starting HTTP server", "port", port, "region", region)
	if err := srv.Routes().Run(":" + port); err != nil {
		return fmt.Errorf("error running HTTP server: %w", err)
	}
	return nil
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if strings.EqualFold(os.Getenv("RITA_LOG_LEVEL"), "debug") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
