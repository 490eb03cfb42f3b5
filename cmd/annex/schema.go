package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackcoderx/brainannex/pkg/content"
	"github.com/blackcoderx/brainannex/pkg/tui"
)

var (
	classCode    string
	propType     string
	propRequired bool
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Change the classes, properties and relationships of the schema",
}

func init() {
	addClassCmd.Flags().StringVar(&classCode, "code", "", "short schema code")
	addPropertyCmd.Flags().StringVar(&propType, "type", "", "data type of the property")
	addPropertyCmd.Flags().BoolVar(&propRequired, "required", false, "the property must be set")

	schemaCmd.AddCommand(
		addClassCmd, deleteClassCmd,
		addPropertyCmd, deletePropertyCmd,
		addRelationshipCmd, deleteRelationshipCmd,
		propertiesCmd,
	)
	rootCmd.AddCommand(schemaCmd)
}

func schema() *content.Schema {
	return content.NewSchema(client).WithBasePath(basePath + "/schema")
}

// schemaChange runs one schema call and reports it.
func schemaChange(cmd *cobra.Command, done string, fn func(context.Context, *content.Schema) error) error {
	s := schema()
	if err := wait(cmd, "Updating schema", func(ctx context.Context) error {
		return fn(ctx, s)
	}); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), tui.Status(true, done, plain(cmd)))
	return nil
}

var addClassCmd = &cobra.Command{
	Use:   "add-class <name>",
	Short: "Create a class",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return schemaChange(cmd, "class "+args[0]+" added", func(ctx context.Context, s *content.Schema) error {
			return s.AddClass(ctx, args[0], classCode)
		})
	},
}

var deleteClassCmd = &cobra.Command{
	Use:   "delete-class <name>",
	Short: "Delete a class",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return schemaChange(cmd, "class "+args[0]+" deleted", func(ctx context.Context, s *content.Schema) error {
			return s.DeleteClass(ctx, args[0])
		})
	},
}

var addPropertyCmd = &cobra.Command{
	Use:   "add-property <class> <property>",
	Short: "Add a property to a class",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := content.Property{Name: args[1], DataType: propType, Required: propRequired}
		return schemaChange(cmd, "property "+args[1]+" added", func(ctx context.Context, s *content.Schema) error {
			return s.AddProperty(ctx, args[0], p)
		})
	},
}

var deletePropertyCmd = &cobra.Command{
	Use:   "delete-property <class> <property>",
	Short: "Remove a property from a class",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return schemaChange(cmd, "property "+args[1]+" deleted", func(ctx context.Context, s *content.Schema) error {
			return s.DeleteProperty(ctx, args[0], args[1])
		})
	},
}

var addRelationshipCmd = &cobra.Command{
	Use:   "add-relationship <from> <to> <name>",
	Short: "Link two classes",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		r := content.Relationship{From: args[0], To: args[1], Name: args[2]}
		return schemaChange(cmd, "relationship "+r.Name+" added", func(ctx context.Context, s *content.Schema) error {
			return s.AddRelationship(ctx, r)
		})
	},
}

var deleteRelationshipCmd = &cobra.Command{
	Use:   "delete-relationship <from> <to> <name>",
	Short: "Remove a link between two classes",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		r := content.Relationship{From: args[0], To: args[1], Name: args[2]}
		return schemaChange(cmd, "relationship "+r.Name+" deleted", func(ctx context.Context, s *content.Schema) error {
			return s.DeleteRelationship(ctx, r)
		})
	},
}

var propertiesCmd = &cobra.Command{
	Use:   "properties <class>",
	Short: "List the properties of a class",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := schema()
		props, err := fetch(cmd, "Loading", func(ctx context.Context) ([]content.Property, error) {
			return s.ClassProperties(ctx, args[0])
		})
		if err != nil {
			return err
		}
		for _, p := range props {
			line := p.Name
			if p.DataType != "" {
				line += " " + p.DataType
			}
			if p.Required {
				line += " (required)"
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}
