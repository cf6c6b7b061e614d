package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/soundstage/internal/adapter/input"
	"github.com/jmylchreest/soundstage/internal/config"
)

var importOpts struct {
	from   string
	dryRun bool
}

var scenesCmd = &cobra.Command{
	Use:   "scenes",
	Short: "List configured scenes",
	Long: `List the scenes from the config file with their keys and sources.

A scene maps a screen of an application to its background track. Use
"soundstage play --scene NAME" or the TUI to enter one.`,
	Args: cobra.NoArgs,
	RunE: runScenes,
}

var scenesImportCmd = &cobra.Command{
	Use:   "import [DIR]",
	Short: "Create scenes from sound files",
	Long: `Create scenes from a directory of sound files or a list on stdin, and
save them to the config file.

From a directory, every supported audio file (mp3, wav, ogg) becomes a scene
named after the file. Without DIR the sounds directory
(~/.local/share/soundstage/sounds) is scanned.

From stdin, either a JSON array of {"name", "key", "source", "volume",
"loop"} objects or lines of "name=path" (or a bare path) are accepted.

Scenes with an existing name are replaced; new ones are appended.

Examples:
  soundstage scenes import ~/sounds
  printf 'menu=~/sounds/menu.ogg\n' | soundstage scenes import --from stdin
  soundstage scenes import --dry-run`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScenesImport,
}

func init() {
	rootCmd.AddCommand(scenesCmd)
	scenesCmd.AddCommand(scenesImportCmd)

	scenesImportCmd.Flags().StringVar(&importOpts.from, "from", "dir",
		"Import source (dir, stdin)")
	scenesImportCmd.Flags().BoolVar(&importOpts.dryRun, "dry-run", false,
		"Show the resulting scenes without saving")
}

func runScenes(cmd *cobra.Command, args []string) error {
	return printScenes(cfg.Scenes)
}

func printScenes(scenes []config.SceneConfig) error {
	if len(scenes) == 0 {
		fmt.Println("no scenes configured")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tKEY\tVOLUME\tLOOP\tSOURCE")
	for _, s := range scenes {
		volume := "-"
		if s.Volume != nil {
			volume = fmt.Sprintf("%d%%", int(*s.Volume*100+0.5))
		}
		loop := "-"
		if s.Loop != nil {
			loop = fmt.Sprintf("%t", *s.Loop)
		}
		key := s.Key
		if key == "" {
			key = "(source)"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.Name, key, volume, loop, s.Source)
	}
	return w.Flush()
}

func runScenesImport(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var arg string
	if len(args) > 0 {
		arg = args[0]
	}

	source, err := input.NewAdapter(importOpts.from, arg)
	if err != nil {
		return err
	}

	imported, err := source.Import(ctx)
	if err != nil {
		return err
	}
	if len(imported) == 0 {
		fmt.Println("no sound files found")
		return nil
	}

	merged, added, updated := input.Merge(cfg.Scenes, imported)
	next := *cfg
	next.Scenes = merged
	if err := next.Validate(); err != nil {
		return fmt.Errorf("imported scenes are invalid: %w", err)
	}

	if importOpts.dryRun {
		return printScenes(merged)
	}

	if err := next.Save(globalOpts.configPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Printf("imported %d scenes from %s (%d added, %d updated)\n", len(imported), source.Name(), added, updated)
	return nil
}
