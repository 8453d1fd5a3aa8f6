// Package cli implements the bootanalyze command line.
//
// The root command measures boots directly; subcommands cover the same run
// explicitly, validating a pattern configuration offline and capturing a
// single shutdown:
//
//	bootanalyze run            measure one or more boots
//	bootanalyze check-config   compile a pattern configuration
//	bootanalyze shutdown       reboot once and report the shutdown
//
// Global flags (--log-level, --debug, --kubeconfig) apply to every command.
// Pattern configurations and reports may live in files or in ConfigMaps
// addressed as cm://namespace/name.
package cli
