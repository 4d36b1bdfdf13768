package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/adebold/warehouse-network-sub010/internal/catalog"
	"github.com/adebold/warehouse-network-sub010/internal/config"
	"github.com/adebold/warehouse-network-sub010/internal/workspace"
)

func newInitCmd(a *app) *cobra.Command {
	var template string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if template != "warehouse" {
				return fmt.Errorf("unknown template: %s", template)
			}
			root, err := workspace.ResolveRoot(a.workspacePath)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(root, 0o755); err != nil {
				return fmt.Errorf("create workspace root: %w", err)
			}
			ws, err := workspace.Resolve(root)
			if err != nil {
				return err
			}
			if err := ws.EnsureDirs(); err != nil {
				return err
			}
			if err := a.open(); err != nil {
				return err
			}
			defer a.close()

			finish := a.track("workspace_init", map[string]any{
				"workspace": ws.Root,
				"template":  template,
			})
			err = writeWorkspaceTemplate(ws)
			finish(map[string]any{"workspace": ws.Root, "template": template}, err)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized workspace: %s\n", ws.Root)
			return nil
		},
	}
	cmd.Flags().StringVar(&template, "template", "warehouse", "Workspace template")
	return cmd
}

func writeWorkspaceTemplate(ws *workspace.Workspace) error {
	if err := writeFileIfMissing(filepath.Join(ws.CatalogDir, "warehouse.yml"), catalog.WarehouseTemplate); err != nil {
		return err
	}
	if err := writeFileIfMissing(ws.StatePath, catalog.WarehouseStateTemplate); err != nil {
		return err
	}
	cfg, err := config.Template(config.Default())
	if err != nil {
		return err
	}
	return writeFileIfMissing(ws.ConfigPath, string(cfg))
}

func writeFileIfMissing(path string, contents string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure dir for %s: %w", path, err)
	}
	return os.WriteFile(path, []byte(contents), 0o644)
}
