package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eringen/pubform"
)

var form pubform.FormState

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Insert one content record without the web form",
	Long: `submit normalizes the given fields exactly as the web form does and
inserts one row into the configured content table. Media paths are given
as a comma-separated list and stamped with the configured media type.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// The CLI always takes media as a combined path list.
		cfg.Media.Mode = pubform.MediaCombined
		if cfg.SessionSecret == "" {
			cfg.SessionSecret = "unused"
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		categories, err := pubform.NewCategoryPolicy(cfg.Category.Mode, cfg.Category.Options)
		if err != nil {
			return err
		}
		if missing := form.MissingFields(categories); len(missing) > 0 {
			return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
		}

		ins, closer, err := pubform.OpenBackend(cfg)
		if err != nil {
			return err
		}
		if closer != nil {
			defer closer()
		}

		media, err := pubform.NewMediaPolicy(cfg.Media.Mode, cfg.Media.Type)
		if err != nil {
			return err
		}
		ctrl := pubform.NewController(ins,
			pubform.WithMediaPolicy(media),
			pubform.WithTable(cfg.Table),
		)
		defer ctrl.Close()
		ctrl.Update(func(f *pubform.FormState) { *f = form })

		out, err := ctrl.Submit(cmd.Context())
		var pe *pubform.PersistenceError
		if errors.As(err, &pe) {
			return fmt.Errorf("error submitting content: %s", pe.Message)
		}
		if err != nil {
			return err
		}
		if out.ContentID != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Content submitted. New Content ID: %s\n", out.ContentID)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "Content submitted.")
		}
		return nil
	},
}

func init() {
	f := submitCmd.Flags()
	f.StringVar(&form.Title, "title", "", "Content title")
	f.StringVar(&form.AuthorName, "author", "", "Author name")
	f.StringVar(&form.Department, "department", "", "Department")
	f.StringVar(&form.Category, "category", "", "Category")
	f.StringVar(&form.Body, "body", "", "Body text")
	f.StringVar(&form.MediaText, "media", "", "Comma-separated media storage paths")
	f.StringVar(&form.Tags, "tags", "", "Comma-separated tags")
	f.BoolVar(&form.IsFeatured, "featured", false, "Mark the content as featured")
}
