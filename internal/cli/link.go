package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"tracker/internal/app"
	"tracker/internal/services"
	"tracker/internal/sheets/xlsx"
)

// NewLinkCommand creates the link command group.
func NewLinkCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Save and organise links",
	}
	cmd.AddCommand(newLinkAddCommand(rootOpts))
	cmd.AddCommand(newLinkListCommand(rootOpts))
	cmd.AddCommand(newLinkShowCommand(rootOpts))
	cmd.AddCommand(newLinkUpdateCommand(rootOpts))
	cmd.AddCommand(newLinkRemoveCommand(rootOpts))
	cmd.AddCommand(newLinkImportCommand(rootOpts))
	cmd.AddCommand(newLinkExportCommand(rootOpts))
	cmd.AddCommand(newLinkTemplateCommand(rootOpts))
	return cmd
}

func newLinkAddCommand(rootOpts *RootOptions) *cobra.Command {
	var description, category string
	cmd := &cobra.Command{
		Use:   "add <title> <url>",
		Short: "Save a link",
		Args:  cobra.ExactArgs(2),
	}
	cmd.Flags().StringVar(&description, "description", "", "link description")
	cmd.Flags().StringVar(&category, "category", "", "link category")

	return rootOpts.withApp(cmd, true, func(cmd *cobra.Command, args []string, a *app.App, out *OutputFormatter) error {
		l, err := a.Links.Create(cmd.Context(), services.NewLink{
			Title:       args[0],
			URL:         args[1],
			Description: description,
			Category:    category,
		})
		if err != nil {
			return failed("could not save link", err)
		}
		return out.Success(l, func(w io.Writer) { fmt.Fprintf(w, "Saved link %d: %s\n", l.ID, l.Title) })
	})
}

func newLinkListCommand(rootOpts *RootOptions) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved links, newest first",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&category, "category", "", "only links in this category")

	return rootOpts.withApp(cmd, true, func(_ *cobra.Command, _ []string, a *app.App, out *OutputFormatter) error {
		links := a.Links.List()
		if category != "" {
			links = a.Links.ByCategory(category)
		}
		return out.Success(links, func(w io.Writer) {
			rows := make([][]string, 0, len(links))
			for _, l := range links {
				rows = append(rows, []string{strconv.FormatInt(l.ID, 10), l.Title, l.URL, l.Category})
			}
			table(w, []string{"ID", "TITLE", "URL", "CATEGORY"}, rows)
		})
	})
}

func newLinkShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one link",
		Args:  cobra.ExactArgs(1),
	}
	return rootOpts.withApp(cmd, true, func(_ *cobra.Command, args []string, a *app.App, out *OutputFormatter) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		l, ok := a.Links.Get(id)
		if !ok {
			return notFound("link", id)
		}
		return out.Success(l, func(w io.Writer) {
			fmt.Fprintf(w, "#%d %s\n%s\n", l.ID, l.Title, l.URL)
			if l.Category != "" {
				fmt.Fprintf(w, "Category: %s\n", l.Category)
			}
			if l.Description != "" {
				fmt.Fprintf(w, "\n%s\n", l.Description)
			}
		})
	})
}

func newLinkUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a link",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().String("title", "", "new title")
	cmd.Flags().String("url", "", "new URL")
	cmd.Flags().String("description", "", "new description")
	cmd.Flags().String("category", "", "new category")

	return rootOpts.withApp(cmd, true, func(cmd *cobra.Command, args []string, a *app.App, out *OutputFormatter) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		l, ok, err := a.Links.Update(cmd.Context(), id, services.LinkPatch{
			Title:       changed(cmd, "title"),
			URL:         changed(cmd, "url"),
			Description: changed(cmd, "description"),
			Category:    changed(cmd, "category"),
		})
		if err != nil {
			return failed("could not update link", err)
		}
		if !ok {
			return notFound("link", id)
		}
		return out.Success(l, func(w io.Writer) { fmt.Fprintf(w, "Updated link %d\n", l.ID) })
	})
}

func newLinkRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a link",
		Args:    cobra.ExactArgs(1),
	}
	return rootOpts.withApp(cmd, true, func(cmd *cobra.Command, args []string, a *app.App, out *OutputFormatter) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ok, err := a.Links.Delete(cmd.Context(), id)
		if err != nil {
			return failed("could not delete link", err)
		}
		if !ok {
			return notFound("link", id)
		}
		return out.Success(map[string]int64{"deleted": id}, func(w io.Writer) { fmt.Fprintf(w, "Deleted link %d\n", id) })
	})
}

func newLinkImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Import links from the first sheet of a workbook",
		Args:  cobra.ExactArgs(1),
	}
	return rootOpts.withApp(cmd, true, func(cmd *cobra.Command, args []string, a *app.App, out *OutputFormatter) error {
		res, err := a.Links.Import(cmd.Context(), xlsx.FileSource(args[0]))
		if errors.Is(err, services.ErrMalformedFile) {
			return failed("could not read "+args[0], services.ErrMalformedFile)
		}
		if err != nil {
			return failed("import failed", err)
		}
		out.VerboseLog("imported %s: %d rows rejected", args[0], len(res.Errors))
		return out.Success(res, func(w io.Writer) {
			fmt.Fprintf(w, "Imported %d link(s)\n", res.Success)
			for _, e := range res.Errors {
				fmt.Fprintf(w, "  %s\n", e)
			}
		})
	})
}

type fileView struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

func newLinkExportCommand(rootOpts *RootOptions) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all links to links_export_<date>.xlsx",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "directory to write the workbook to")

	return rootOpts.withApp(cmd, true, func(cmd *cobra.Command, _ []string, a *app.App, out *OutputFormatter) error {
		path := filepath.Join(dir, a.Links.ExportFileName())
		n, err := a.Links.Export(cmd.Context(), xlsx.FileSink(path))
		if errors.Is(err, services.ErrNothingToExport) {
			return NewExitError(ExitFailure, services.ErrNothingToExport.Error())
		}
		if err != nil {
			return failed("export failed", err)
		}
		return out.Success(fileView{Path: path, Count: n}, func(w io.Writer) {
			fmt.Fprintf(w, "Exported %d link(s) to %s\n", n, path)
		})
	})
}

func newLinkTemplateCommand(rootOpts *RootOptions) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write an import template workbook",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "directory to write the workbook to")

	return rootOpts.withApp(cmd, true, func(cmd *cobra.Command, _ []string, a *app.App, out *OutputFormatter) error {
		path := filepath.Join(dir, services.TemplateFileName)
		t := a.Links.TemplateTable()
		if err := xlsx.FileSink(path).WriteTable(cmd.Context(), t); err != nil {
			return failed("could not write template", err)
		}
		return out.Success(fileView{Path: path, Count: len(t.Rows)}, func(w io.Writer) {
			fmt.Fprintf(w, "Wrote template to %s\n", path)
		})
	})
}
