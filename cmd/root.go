/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/allbin/go-rawserial"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultPollInterval = 10 * time.Millisecond

var (
	cfgFile string
	log     = logrus.New()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rawserial",
	Short: "Raw, non-blocking serial port tool",
	Long: `rawserial opens serial devices in raw 8N1 mode with exclusive access and
drives them through a non-blocking readiness/read/write API.

The device configuration found at open is restored when the port is closed.

Defaults for the global flags can be set in $HOME/.rawserial.yaml or through
RAWSERIAL_* environment variables, e.g. RAWSERIAL_BAUD=9600.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.rawserial.yaml)")
	rootCmd.PersistentFlags().IntP("baud", "b", serial.DefaultSettings().BaudRate, "Baud rate")
	rootCmd.PersistentFlags().Bool("rtscts", false, "Enable RTS/CTS hardware flow control")
	rootCmd.PersistentFlags().Duration("poll-interval", defaultPollInterval, "Delay between polls while the port is idle")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log port open/close steps to stderr")

	for _, name := range []string{"baud", "rtscts", "poll-interval", "verbose"} {
		cobra.CheckErr(viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".rawserial")
	}

	viper.SetEnvPrefix("RAWSERIAL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	configErr := viper.ReadInConfig()

	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	log.SetLevel(logrus.InfoLevel)
	if viper.GetBool("verbose") {
		log.SetLevel(logrus.DebugLevel)
	}

	if configErr == nil {
		log.WithField("file", viper.ConfigFileUsed()).Debug("using config file")
	} else if cfgFile != "" {
		log.WithError(configErr).Warn("could not read config file")
	}
}

// portSettings collects the line settings from flags, environment and config
func portSettings() (serial.Settings, error) {
	s := serial.Settings{
		BaudRate:    viper.GetInt("baud"),
		FlowControl: viper.GetBool("rtscts"),
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("baud rate %d: %w", s.BaudRate, err)
	}
	return s, nil
}

func pollInterval() time.Duration {
	d := viper.GetDuration("poll-interval")
	if d <= 0 {
		return defaultPollInterval
	}
	return d
}

// openPort opens portPath with the configured settings
func openPort(portPath string) (*serial.Port, serial.Settings, error) {
	s, err := portSettings()
	if err != nil {
		return nil, s, err
	}

	port := serial.New(serial.WithLogger(log))
	if err := port.OpenSettings(portPath, s); err != nil {
		return nil, s, err
	}
	return port, s, nil
}
