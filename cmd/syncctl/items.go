package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rankstack/rankstack-sync/internal/model"
)

func init() {
	itemCmd := &cobra.Command{Use: "item", Short: "Item operations"}

	// add
	var collectionID, title string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add an item to a collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			if collectionID == "" || title == "" {
				return fmt.Errorf("--collection and --title required")
			}
			it, err := client().CreateItem(cmd.Context(), &model.Item{
				CollectionID: collectionID,
				Title:        title,
			})
			if err != nil {
				return err
			}
			return printJSON(it)
		},
	}
	addCmd.Flags().StringVarP(&collectionID, "collection", "c", "", "Collection ID (required)")
	addCmd.Flags().StringVarP(&title, "title", "t", "", "Item title (required)")
	_ = addCmd.MarkFlagRequired("collection")
	_ = addCmd.MarkFlagRequired("title")
	itemCmd.AddCommand(addCmd)

	// list
	var listCollectionID string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List items, optionally scoped to one collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := client().ListItems(cmd.Context(), listCollectionID)
			if err != nil {
				return err
			}
			return printJSON(items)
		},
	}
	listCmd.Flags().StringVarP(&listCollectionID, "collection", "c", "", "Collection ID")
	itemCmd.AddCommand(listCmd)

	// done
	doneCmd := &cobra.Command{
		Use:   "done ITEM_ID",
		Short: "Mark an item completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client()
			it, err := c.GetItem(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			it.Done = true
			it.UpdatedAt = time.Now().UTC()
			updated, err := c.UpdateItem(cmd.Context(), it)
			if err != nil {
				return err
			}
			return printJSON(updated)
		},
	}
	itemCmd.AddCommand(doneCmd)

	// delete
	deleteCmd := &cobra.Command{
		Use:   "delete ITEM_ID",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client().DeleteItem(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, "deleted")
			return nil
		},
	}
	itemCmd.AddCommand(deleteCmd)

	// batch
	var batchCollectionID string
	batchCmd := &cobra.Command{
		Use:   "batch TITLE...",
		Short: "Add several items in one all-or-nothing batch",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if batchCollectionID == "" {
				return fmt.Errorf("--collection required")
			}
			items := make([]*model.Item, 0, len(args))
			for _, title := range args {
				items = append(items, &model.Item{CollectionID: batchCollectionID, Title: title})
			}
			saved, err := client().SaveItemsBatch(cmd.Context(), items)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(os.Stdout, "saved %d items\n", saved)
			return nil
		},
	}
	batchCmd.Flags().StringVarP(&batchCollectionID, "collection", "c", "", "Collection ID (required)")
	_ = batchCmd.MarkFlagRequired("collection")
	itemCmd.AddCommand(batchCmd)

	rootCmd.AddCommand(itemCmd)
}
