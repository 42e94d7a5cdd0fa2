package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gitdigital/founder-loan-service/pkg"
	"github.com/spf13/cobra"
)

const (
	defaultConfigFileName = "config.yml"
	configPathEnv         = "FOUNDER_LOAN_CONFIG"
)

var (
	cfgPath string
	rootCmd = &cobra.Command{
		Use:           "founder-loan-service",
		Short:         "Revenue based founder loans with on-ledger credit scoring",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func Setup() error {
	homePath, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	defaultConfigPath := pkg.Getenv(configPathEnv, getDefaultConfigFile(homePath, defaultConfigFileName))

	rootCmd.AddCommand(
		StartServerCmd(),
		InitProtocolCmd(),
		CreateLoanCmd(),
		RepayCmd(),
		AutoRepayCmd(),
		ForgiveCmd(),
		ShowLoanCmd(),
		ShowBorrowerCmd(),
		ShowEventsCmd(),
		FundAccountCmd(),
		BalanceCmd(),
		LedgerReportCmd(),
	)
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath, fmt.Sprintf("config file (default %s)", defaultConfigPath))

	return rootCmd.Execute()
}

func getDefaultConfigFile(homePath, filename string) string {
	return filepath.Join(homePath, filename)
}

func GetConfigPath() string {
	return cfgPath
}
