package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bilancio/internal/core"
	"bilancio/internal/log"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage transaction categories",
		Long:  `List and add the user-owned categories stored in the local key-value store.`,
	}
	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	return cmd
}

func listCategoriesCmd() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer closeBackend(res)

			list := res.Categories.List()
			if kind != "" {
				k, err := core.ParseKind(kind)
				if err != nil {
					return err
				}
				list = res.Categories.ListByKind(k)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No categories found. Use 'bilancio-cli categories add' to create one.")
				return nil
			}

			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tNAME\tTYPE\tCOLOR\tICON")
			for _, c := range list {
				icon := string(c.Icon)
				if icon == "" {
					icon = "-"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Type, c.Color, icon)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&kind, "type", "", "only list categories of this type (income, expense, investment)")
	return cmd
}

func addCategoryCmd() *cobra.Command {
	var (
		kind  string
		color string
		icon  string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Long:  `Create a category. Without --color the default color of its type is used.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := core.ParseKind(kind)
			if err != nil {
				return err
			}
			res, err := openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer closeBackend(res)

			created, err := res.Categories.Create(cmd.Context(), core.Category{
				Name:  args[0],
				Type:  k,
				Color: color,
				Icon:  core.Icon(icon),
			})
			if err != nil {
				return fmt.Errorf("failed to create category: %w", err)
			}
			logger.Info("Category created", log.FieldCategoryID, created.ID, "name", created.Name)
			fmt.Fprintf(cmd.OutOrStdout(), "Created category %d %q (%s, %s)\n", created.ID, created.Name, created.Type, created.Color)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "type", string(core.Expense), "category type (income, expense, investment)")
	cmd.Flags().StringVar(&color, "color", "", "hex color such as #22c55e")
	cmd.Flags().StringVar(&icon, "icon", "", "icon name")
	return cmd
}
