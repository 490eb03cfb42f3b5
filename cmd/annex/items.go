package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackcoderx/brainannex/pkg/content"
	"github.com/blackcoderx/brainannex/pkg/item"
	"github.com/blackcoderx/brainannex/pkg/request"
	"github.com/blackcoderx/brainannex/pkg/tui"
)

var (
	basePath    string
	getText     bool
	addAfter    string
	addClass    string
	editYes     bool
	deleteYes   bool
	deleteKind  string
	recOrderBy  string
	recLimit    int
	recSkip     int
	categoryURI string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&basePath, "api", content.DefaultBasePath, "API root on the server")

	getCmd.Flags().BoolVar(&getText, "text", false, "print the body of a note")

	editCmd.Flags().StringVar(&categoryURI, "category", "", "category of the item")
	editCmd.Flags().BoolVarP(&editYes, "yes", "y", false, "save without asking")

	addCmd.Flags().StringVar(&addAfter, "after", content.InsertBottom, "URI of the preceding item, TOP or BOTTOM")
	addCmd.Flags().StringVar(&addClass, "class", "", "class name (required for records)")

	deleteCmd.Flags().StringVar(&deleteKind, "kind", "", "schema code of the item")
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "do not ask for confirmation")

	recordsCmd.Flags().StringVar(&recOrderBy, "order-by", "", "field to sort by")
	recordsCmd.Flags().IntVar(&recLimit, "limit", 0, "maximum number of records")
	recordsCmd.Flags().IntVar(&recSkip, "skip", 0, "records to skip")

	rootCmd.AddCommand(getCmd, editCmd, addCmd, deleteCmd, uploadCmd, recordsCmd, moveCmd)
}

func service() *content.Service {
	return content.NewService(client).WithBasePath(basePath)
}

// fetch runs fn behind the waiting indicator and returns its value.
func fetch[T any](cmd *cobra.Command, label string, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := wait(cmd, label, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}

func printItem(cmd *cobra.Command, it content.Item) {
	p := plain(cmd)
	header := fmt.Sprintf("%s (%s)", it.URI, it.Kind)
	if it.ClassName != "" {
		header += " " + it.ClassName
	}
	if !p {
		header = tui.LabelStyle.Render(header)
	}
	fmt.Fprintln(cmd.OutOrStdout(), header)
	if len(it.Fields) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), tui.KeyValues(it.Fields, p))
	}
}

var getCmd = &cobra.Command{
	Use:   "get <uri>",
	Short: "Show a content item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service()
		if getText {
			text, err := fetch(cmd, "Loading", func(ctx context.Context) (string, error) {
				return svc.TextMedia(ctx, args[0])
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		}

		it, err := fetch(cmd, "Loading", func(ctx context.Context) (content.Item, error) {
			return svc.Get(ctx, args[0])
		})
		if err != nil {
			return err
		}
		printItem(cmd, it)
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <uri> [key=value ...]",
	Short: "Edit the fields of a content item",
	Long: `Without key=value arguments a form opens with every field of the item.
The change is shown as a diff before it is saved.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service()
		it, err := fetch(cmd, "Loading", func(ctx context.Context) (content.Item, error) {
			return svc.Get(ctx, args[0])
		})
		if err != nil {
			return err
		}

		fields, err := editedFields(cmd, it, args[1:])
		if err != nil {
			return err
		}

		ed := svc.Editor(categoryURI, it, item.NewSequencer(), item.WithLogger[content.Item](logger))
		ed.BeginEdit()
		if err := ed.Update(func(d *content.Item) { d.Fields = fields }); err != nil {
			return err
		}
		return saveDraft(cmd, ed, editYes)
	},
}

func editedFields(cmd *cobra.Command, it content.Item, args []string) (request.Params, error) {
	if len(args) > 0 {
		changes, err := parseParams(args)
		if err != nil {
			return nil, err
		}
		return it.Fields.Merge(changes), nil
	}
	if plain(cmd) {
		return nil, fmt.Errorf("no changes given and no terminal for the form")
	}
	return tui.EditFields(fmt.Sprintf("Edit %s %s", it.Kind, it.URI), it.Fields, it.Kind.RequiredFields())
}

// saveDraft shows the pending change, asks for confirmation and saves it.
// Declining cancels the edit.
func saveDraft(cmd *cobra.Command, ed *item.Editor[content.Item], yes bool) error {
	base, draft := ed.Baseline(), ed.Draft()
	diff := tui.Diff(draft.URI, base.Fields, draft.Fields)
	if diff == "" && ed.Persisted() {
		fmt.Fprintln(cmd.ErrOrStderr(), "No changes")
		ed.Cancel()
		return nil
	}
	if diff != "" {
		if !plain(cmd) {
			diff = tui.ColorDiff(diff)
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSuffix(diff, "\n"))
	}

	if !yes && !plain(cmd) {
		ok, err := tui.Confirm("Save this change?")
		if err != nil {
			return err
		}
		if !ok {
			ed.Cancel()
			return nil
		}
	}

	err := wait(cmd, "Saving", ed.Save)
	if err != nil {
		logger.Debug("save failed", zap.String("uri", base.URI), zap.Error(err))
		return err
	}
	saved := ed.Baseline()
	fmt.Fprintln(cmd.OutOrStdout(), tui.Status(true, "saved "+saved.URI, plain(cmd)))
	return nil
}

var addCmd = &cobra.Command{
	Use:   "add <category> <kind> [key=value ...]",
	Short: "Add a content item to a category",
	Example: `  annex add 12 h text="Chapter 1"
  annex add 12 r --class "German Vocabulary" English=Love German=Liebe`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := content.ParseKind(args[1])
		if err != nil {
			return err
		}
		fields, err := parseParams(args[2:])
		if err != nil {
			return err
		}
		it := content.NewItem(kind, fields)
		if addClass != "" {
			it.ClassName = addClass
		}
		if err := it.Validate(); err != nil {
			return err
		}

		svc := service()
		uri, err := fetch(cmd, "Adding", func(ctx context.Context) (string, error) {
			return svc.Add(ctx, args[0], it, addAfter)
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tui.Status(true, "added "+uri, plain(cmd)))
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <category> <uri>",
	Short: "Remove a content item from a category",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service()
		kind := content.Kind(deleteKind)
		if deleteKind != "" {
			k, err := content.ParseKind(deleteKind)
			if err != nil {
				return err
			}
			kind = k
		} else {
			it, err := fetch(cmd, "Loading", func(ctx context.Context) (content.Item, error) {
				return svc.Get(ctx, args[1])
			})
			if err != nil {
				return err
			}
			kind = it.Kind
		}

		if !deleteYes && !plain(cmd) {
			ok, err := tui.Confirm(fmt.Sprintf("Delete %s %s?", kind, args[1]))
			if err != nil || !ok {
				return err
			}
		}
		if err := wait(cmd, "Deleting", func(ctx context.Context) error {
			return svc.Delete(ctx, args[1], kind, args[0])
		}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tui.Status(true, "deleted "+args[1], plain(cmd)))
		return nil
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <category> <file>",
	Short: "Upload an image or document into a category",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("failed to open upload: %w", err)
		}
		defer f.Close()

		svc := service()
		uri, err := fetch(cmd, "Uploading", func(ctx context.Context) (string, error) {
			return svc.UploadMedia(ctx, args[0], filepath.Base(args[1]), f)
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tui.Status(true, "uploaded "+uri, plain(cmd)))
		return nil
	},
}

var recordsCmd = &cobra.Command{
	Use:   "records <class>",
	Short: "List the records of a class",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service()
		q := content.RecordsetQuery{ClassName: args[0], OrderBy: recOrderBy, Limit: recLimit, Skip: recSkip}
		recs, err := fetch(cmd, "Loading", func(ctx context.Context) ([]content.Item, error) {
			return svc.Records(ctx, q)
		})
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No records")
		}
		for _, r := range recs {
			printItem(cmd, r)
		}
		return nil
	},
}

var moveCmd = &cobra.Command{
	Use:   "move <category> <uri> <up|down>",
	Short: "Move an item one slot within its category",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := content.Direction(strings.ToLower(args[2]))
		svc := service()
		if err := wait(cmd, "Moving", func(ctx context.Context) error {
			return svc.Reposition(ctx, args[0], args[1], dir)
		}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tui.Status(true, "moved "+args[1]+" "+string(dir), plain(cmd)))
		return nil
	},
}
