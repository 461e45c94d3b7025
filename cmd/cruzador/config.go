package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cruzador/internal/config"
	"cruzador/internal/util"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Administra config.toml",
}

// configInitCmd 写出默认配置（路径同 --config，默认在可执行文件旁）
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Escribe un config.toml con los valores por defecto",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "sobrescribir si ya existe")
	configCmd.AddCommand(configInitCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := cfgInfo.Path
	if path == "" {
		path = config.DefaultPath()
	}
	if util.FileExists(path) && !configForce {
		return fmt.Errorf("%s ya existe (use --force)", path)
	}
	if err := config.SaveConfig(config.DefaultConfig(), path); err != nil {
		return fmt.Errorf("写入配置失败: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "config: %s\n", path)
	return nil
}
