package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"campus-advisor/internal/catalog"
	"campus-advisor/internal/service"
)

var (
	modulesSemester int
	modulesSeason   string
	modulesJSON     bool
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List modules from the published index",
	Long: `Lists the modules of a semester or term. Without filters every module
is listed.`,
	Args: cobra.NoArgs,
	RunE: runModules,
}

func init() {
	modulesCmd.Flags().IntVarP(&modulesSemester, "semester", "s", 0, "semester number")
	modulesCmd.Flags().StringVar(&modulesSeason, "season", "", "term: winter, summer or both")
	modulesCmd.Flags().BoolVar(&modulesJSON, "json", false, "output modules as JSON")
	rootCmd.AddCommand(modulesCmd)
}

func runModules(cmd *cobra.Command, _ []string) error {
	q := service.ModulesQuery{Semester: modulesSemester}
	if modulesSeason != "" {
		season, err := catalog.ParseSeason(modulesSeason)
		if err != nil {
			return err
		}
		q.Season = season
	}

	ctx := commandContext(cmd)
	a, restored, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
	}()
	if !restored {
		return errNoIndex
	}

	modules, err := a.Advisor().Modules(ctx, q)
	if err != nil {
		return fmt.Errorf("failed to list modules: %w", err)
	}
	if modulesJSON {
		return printJSON(cmd, modules)
	}
	printModules(cmd, modules)
	return nil
}

func printModules(cmd *cobra.Command, modules []catalog.ModuleRecord) {
	if len(modules) == 0 {
		cmd.Println("No modules found.")
		return
	}
	for _, m := range modules {
		line := fmt.Sprintf("  %-10s %s", m.Code, m.Name)
		if m.Credits > 0 {
			line += fmt.Sprintf(" (%d CP)", m.Credits)
		}
		if len(m.Semesters) > 0 {
			sems := make([]string, len(m.Semesters))
			for i, s := range m.Semesters {
				sems[i] = fmt.Sprint(s)
			}
			line += " [semester " + strings.Join(sems, ", ") + "]"
		}
		cmd.Println(line)
	}
	cmd.Printf("\n%d modules\n", len(modules))
}
