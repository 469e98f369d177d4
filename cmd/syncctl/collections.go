package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rankstack/rankstack-sync/internal/model"
)

func init() {
	collectionCmd := &cobra.Command{Use: "collection", Short: "Collection operations"}

	// create
	var name, category string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name required")
			}
			col, err := client().CreateCollection(cmd.Context(), &model.Collection{
				Name:     name,
				Category: category,
			})
			if err != nil {
				return err
			}
			return printJSON(col)
		},
	}
	createCmd.Flags().StringVarP(&name, "name", "n", "", "Collection name (required)")
	createCmd.Flags().StringVarP(&category, "category", "c", "", "Category tag")
	_ = createCmd.MarkFlagRequired("name")
	collectionCmd.AddCommand(createCmd)

	// list
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List collections",
		RunE: func(cmd *cobra.Command, args []string) error {
			cols, err := client().ListCollections(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cols)
		},
	}
	collectionCmd.AddCommand(listCmd)

	// get
	getCmd := &cobra.Command{
		Use:   "get COLLECTION_ID",
		Short: "Get a collection by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, err := client().GetCollection(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(col)
		},
	}
	collectionCmd.AddCommand(getCmd)

	// delete
	deleteCmd := &cobra.Command{
		Use:   "delete COLLECTION_ID",
		Short: "Delete a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client().DeleteCollection(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, "deleted")
			return nil
		},
	}
	collectionCmd.AddCommand(deleteCmd)

	rootCmd.AddCommand(collectionCmd)
}
