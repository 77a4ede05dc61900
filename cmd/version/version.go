package version

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/ghss/internal/config"
)

var (
	AppConfig *config.Config

	// CoreVersion and BuildTime are overridden at link time via -ldflags.
	CoreVersion = "unknown"
	BuildTime   = "unknown"
)

// Init records the resolved configuration so the version command can
// report which provider it was configured with.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// NewVersionCmd creates the version subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "version",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Print the version of ghss",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ghss version %s\n", CoreVersion)
			fmt.Printf("go version %s\n", runtime.Version())
			fmt.Printf("build time %s\n", BuildTime)
			if AppConfig != nil {
				fmt.Printf("advisory provider %s\n", AppConfig.Provider)
			}
		},
	}
}
