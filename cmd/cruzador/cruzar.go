package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cruzador/internal/model"
	"cruzador/internal/service/excel"
	"cruzador/internal/service/reconcile"
	"cruzador/internal/util"
)

var (
	inventarioPath string
	escaneoPath    string
	outputPath     string
	modo           string
)

// cruzarCmd 离线核对两个本地文件
var cruzarCmd = &cobra.Command{
	Use:   "cruzar",
	Short: "Cruza dos archivos locales sin levantar el servidor",
	Example: `  cruzador cruzar --inventario inventario.xlsx --escaneo escaneo.xlsx
  cruzador cruzar --inventario inv.xlsx --escaneo scan.xlsx -o salida.xlsx --modo lenient`,
	Args: cobra.NoArgs,
	RunE: runCruzar,
}

func init() {
	cruzarCmd.Flags().StringVar(&inventarioPath, "inventario", "", "Excel de inventario")
	cruzarCmd.Flags().StringVar(&escaneoPath, "escaneo", "", "Excel de escaneo")
	cruzarCmd.Flags().StringVarP(&outputPath, "output", "o", "", "archivo de salida (por defecto reconcile.output_filename)")
	cruzarCmd.Flags().StringVar(&modo, "modo", "", "modo de cruce: exact | lenient")
	_ = cruzarCmd.MarkFlagRequired("inventario")
	_ = cruzarCmd.MarkFlagRequired("escaneo")
}

func runCruzar(cmd *cobra.Command, args []string) error {
	opts := cfg.ReconcileOptions()
	if modo != "" {
		opts.Mode = model.MatchMode(modo)
	}
	rec, err := reconcile.New(opts)
	if err != nil {
		return err
	}

	inventory, err := os.Open(inventarioPath)
	if err != nil {
		return err
	}
	defer inventory.Close()

	scan, err := os.Open(escaneoPath)
	if err != nil {
		return err
	}
	defer scan.Close()

	result, err := rec.ReconcileReaders(inventory, scan)
	if err != nil {
		return err
	}
	defer result.Close()

	out := outputPath
	if out == "" {
		out = cfg.Reconcile.OutputFilename
	}
	body, err := excel.WriteToBytes(result.Workbook)
	if err != nil {
		return err
	}
	if util.FileExists(out) {
		logger.Info("覆盖已有输出文件", zap.String("output", out))
	}
	if err := util.WriteFileAtomic(out, body); err != nil {
		return fmt.Errorf("写入结果失败: %w", err)
	}

	logger.Debug("核对完成",
		zap.String("output", out),
		zap.Ints("matched_rows", result.MatchedRows),
		zap.Strings("new_codes", result.NewCodes),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "coincidencias: %d\ncodigos nuevos: %d\nsalida: %s\n",
		result.MatchCount, len(result.NewCodes), out)
	return nil
}
