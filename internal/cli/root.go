package cli

import (
	"github.com/brendan.keane/paramfn/internal/config"
	"github.com/brendan.keane/paramfn/internal/logger"
	"github.com/brendan.keane/paramfn/internal/store"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app carries state shared by every subcommand of one root command.
type app struct {
	logger    zerolog.Logger
	newClient ClientFactory
}

// NewRootCommand builds the paramfn command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(DefaultClientFactory)
}

func newRootCommand(factory ClientFactory) *cobra.Command {
	a := &app{logger: zerolog.Nop(), newClient: factory}

	root := &cobra.Command{
		Use:   "paramfn",
		Short: "Look up configuration parameters served by the parameters function",
		Long: `paramfn talks to the parameters Lambda function, either by invoking it
directly (lambda://<function>) or through its function URL (https://...).
It can also run the function locally, serve it over HTTP, and expose it to
MCP clients.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().BoolP("verbose", "v", false, "Verbose logging")
	root.PersistentFlags().Bool("debug", false, "Debug logging with caller information")
	root.PersistentFlags().String("log-format", "pretty", "CLI log format (pretty, json)")

	root.AddCommand(
		a.getCommand(),
		a.invokeCommand(),
		a.serveCommand(),
		a.docsCommand(),
		a.mcpCommand(),
		generateCompletionCmd(),
	)

	return root
}

// setup configures logging and loads the configuration into the context.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	debug, _ := cmd.Flags().GetBool("debug")
	format, _ := cmd.Flags().GetString("log-format")

	logCfg := logger.CLIConfig(verbose, debug, format)
	logCfg.Output = cmd.ErrOrStderr()
	a.logger = logger.InitLogger(logCfg)

	cfg, err := config.LoadFromFlags(cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	cmd.SetContext(config.WithConfig(cmd.Context(), cfg))
	return nil
}

func addClientFlags(cmd *cobra.Command) {
	cmd.Flags().String("target", "", "lambda://<function> or function URL (env PARAMFN_TARGET)")
	cmd.Flags().String("bearer", "", "Bearer token for function URL requests (env PARAMFN_TOKEN)")
	cmd.Flags().Bool("base64", false, "Send the request body base64-encoded")
	cmd.Flags().Bool("envelope", false, "Wrap lambda:// invocations in a function URL envelope")
	cmd.Flags().String("region", "", "AWS region (env AWS_REGION)")
	cmd.Flags().String("role-arn", "", "Role to assume for lambda:// targets (env PARAMFN_ROLE_ARN)")
	cmd.Flags().String("role-external-id", "", "External ID for --role-arn (env PARAMFN_ROLE_EXTERNAL_ID)")
	cmd.Flags().String("endpoint-url", "", "AWS endpoint override, e.g. LocalStack (env PARAMFN_ENDPOINT_URL)")
	cmd.Flags().Duration("timeout", config.DefaultTimeout, "Request timeout")
}

func (a *app) getCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <parameter>",
		Short: "Fetch a parameter from the function",
		Example: `  paramfn get mongodb --target lambda://parameters
  paramfn get mongodb --target https://abc.lambda-url.us-east-1.on.aws/ --bearer secret --field uri`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewGetHandler(a.logger, a.newClient).Execute(cmd, args)
		},
		ValidArgsFunction: parameterCompletion,
	}
	addClientFlags(cmd)
	cmd.Flags().String("field", "", "Print only this field of the value, e.g. uri")
	cmd.Flags().BoolP("include", "i", false, "Print the status line before the body")
	return cmd
}

func (a *app) invokeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoke",
		Short: "Run the function in process on an event",
		Example: `  echo '{"parameter":"mongodb"}' | paramfn invoke
  paramfn invoke --event envelope.json --secret s3cr3t`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewInvokeHandler(a.logger).Execute(cmd, args)
		},
	}
	cmd.Flags().String("event", "", "Event file (default stdin)")
	cmd.Flags().String("secret", "", "Shared secret (env PARAMFN_SECRET)")
	return cmd
}

func (a *app) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the function locally the way a function URL does",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewServeHandler(a.logger).Execute(cmd, args)
		},
	}
	cmd.Flags().String("addr", config.DefaultAddr, "Listen address")
	cmd.Flags().String("secret", "", "Shared secret (env PARAMFN_SECRET)")
	return cmd
}

func (a *app) docsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Show the function URL API documentation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewDocsHandler(a.logger).Execute(cmd, args)
		},
	}
	cmd.Flags().Bool("raw", false, "Print the OpenAPI document as YAML")
	return cmd
}

func (a *app) mcpCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run an MCP server on stdio exposing parameter lookup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return NewMCPHandler(a.logger, a.newClient).Execute(cmd, args)
		},
	}
	addClientFlags(cmd)
	cmd.Flags().Bool("local", false, "Serve the built-in parameters instead of a target")
	cmd.Flags().String("mcp-desc", "", "Tool description for LLM context (env PARAMFN_MCP_DESCRIPTION)")
	cmd.Flags().String("secret", "", "Shared secret (env PARAMFN_SECRET)")
	return cmd
}

func parameterCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return store.Default().Names(), cobra.ShellCompDirectiveNoFileComp
}

func generateCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate completion script",
		Long: `To load completions:

Bash:

  $ source <(paramfn completion bash)

Zsh:

  $ source <(paramfn completion zsh)

Fish:

  $ paramfn completion fish | source

PowerShell:

  PS> paramfn completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		PersistentPreRunE:     func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}
