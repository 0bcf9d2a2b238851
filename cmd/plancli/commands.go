package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gymcoach/internal/equipment"
	"gymcoach/internal/excel"
	"gymcoach/internal/models"
	"gymcoach/internal/repository/memory"
	"gymcoach/internal/warmup"
)

// =============================================================================
// GENERATE
// =============================================================================

func (c *cli) generateCmd() *cobra.Command {
	var (
		in         models.TemplateGeneratorInputs
		goal       string
		level      string
		sex        string
		save       bool
		xlsx       string
		prioritize []string
		injuries   []string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a workout template",
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Goal = models.Goal(goal)
			in.ExperienceLevel = models.ExperienceLevel(level)
			in.PrioritizedMuscles = prioritize
			in.Injuries = injuries
			if sex != "" {
				s := models.ParseSex(sex)
				in.Sex = &s
			}

			var (
				tmpl *models.GeneratedTemplate
				id   string
				err  error
			)
			if save {
				id, tmpl, err = c.app.Generator.GenerateAndSave(cmd.Context(), in)
			} else {
				tmpl, err = c.app.Generator.GenerateTemplate(cmd.Context(), in)
			}
			if err != nil {
				return err
			}
			if xlsx != "" {
				if err := excel.ExportTemplate(xlsx, tmpl, nil); err != nil {
					return err
				}
			}
			if save {
				return printJSON(cmd.OutOrStdout(), map[string]any{"template_id": id, "template": tmpl})
			}
			return printJSON(cmd.OutOrStdout(), tmpl)
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.UserID, "user", "", "user id")
	f.StringVar(&goal, "goal", "", "strength, hypertrophy, endurance, powerlifting or general_fitness")
	f.StringVar(&level, "level", "", "beginner, intermediate or advanced")
	f.IntVar(&in.DaysPerWeek, "days", 3, "sessions per week (3-6)")
	f.IntVar(&in.SessionLengthMinutes, "minutes", 60, "session length in minutes (30-120)")
	f.StringSliceVar(&prioritize, "prioritize", nil, "muscle group ids to prioritize")
	f.StringSliceVar(&injuries, "injuries", nil, "body part ids to avoid")
	f.StringVar(&sex, "sex", "", "override the profile sex")
	f.BoolVar(&save, "save", false, "store the template as active")
	f.StringVar(&xlsx, "xlsx", "", "also export the template to an Excel file")
	return cmd
}

// =============================================================================
// WARMUP
// =============================================================================

func warmupFlags(cmd *cobra.Command, req *warmup.PlanRequest, level *string) {
	f := cmd.Flags()
	f.StringVar(&req.UserID, "user", "", "user id")
	f.StringVar(&req.ExerciseID, "exercise", "", "exercise id")
	f.Float64Var(&req.WorkingWeight, "weight", 0, "working set weight, kg")
	f.IntVar(&req.WorkingReps, "reps", warmup.DefaultWorkingReps, "working set reps")
	f.StringVar(level, "level", "", "experience level for the set count range")
}

func (c *cli) warmupCmd() *cobra.Command {
	var (
		req   warmup.PlanRequest
		level string
		xlsx  string
	)
	cmd := &cobra.Command{
		Use:   "warmup",
		Short: "Build a warmup plan for a working set",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.ExperienceLevel = models.ExperienceLevel(level)
			plan, err := c.app.Warmup.GenerateWarmupPlan(cmd.Context(), req)
			if err != nil {
				return err
			}
			if xlsx != "" {
				tmpl := &models.GeneratedTemplate{Template: models.TemplateMetadata{Name: "Warmup " + req.ExerciseID}}
				if err := excel.ExportTemplate(xlsx, tmpl, []*models.WarmupPlan{plan}); err != nil {
					return err
				}
			}
			return printJSON(cmd.OutOrStdout(), plan)
		},
	}
	warmupFlags(cmd, &req, &level)
	cmd.Flags().StringVar(&xlsx, "xlsx", "", "also export the plan to an Excel file")
	return cmd
}

func (c *cli) feedbackCmd() *cobra.Command {
	var (
		req    warmup.PlanRequest
		level  string
		rating string
	)
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Rate the last warmup: not_enough, excellent or too_much",
		Long: `Rebuilds the warmup the user just performed from the same inputs
and records the rating against it, so the next plan adapts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fb, err := models.ParseWarmupFeedback(rating)
			if err != nil {
				return err
			}
			req.ExperienceLevel = models.ExperienceLevel(level)
			plan, err := c.app.Warmup.GenerateWarmupPlan(cmd.Context(), req)
			if err != nil {
				return err
			}
			prefs, err := c.app.Warmup.UpdateWarmupFeedback(cmd.Context(), req.UserID, req.ExerciseID, fb, plan)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), prefs)
		},
	}
	warmupFlags(cmd, &req, &level)
	cmd.Flags().StringVar(&rating, "rating", "", "not_enough, excellent or too_much")
	return cmd
}

// =============================================================================
// SUBSTITUTIONS
// =============================================================================

func (c *cli) substitutesCmd() *cobra.Command {
	var (
		constraints models.SubstitutionConstraints
		target      []string
	)
	cmd := &cobra.Command{
		Use:   "substitutes EXERCISE_ID",
		Short: "List ranked alternatives for an exercise",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caps := equipment.DefaultCapabilities()
			if constraints.UserID != "" {
				caps = c.app.Equipment.Capabilities(cmd.Context(), constraints.UserID)
			}
			alts, err := c.app.Substitution.FindAlternatives(cmd.Context(), args[0], caps, target, &constraints)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), alts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&constraints.UserID, "user", "", "user id (equipment and saved preferences)")
	f.StringVar(&constraints.TemplateID, "template", "", "template id for saved preferences")
	f.StringSliceVar(&target, "target", nil, "target muscle group ids")
	f.StringSliceVar(&constraints.AvoidInjuries, "avoid", nil, "body part ids to avoid")
	f.StringSliceVar(&constraints.PreferredEquipment, "equipment", nil, "allowed equipment slugs")
	f.StringSliceVar(&constraints.ExcludeExerciseIDs, "exclude", nil, "exercise ids to skip")
	return cmd
}

func (c *cli) preferCmd() *cobra.Command {
	var userID, templateID, original, preferred string
	cmd := &cobra.Command{
		Use:   "prefer",
		Short: "Swap an exercise in a template and remember the choice",
		RunE: func(cmd *cobra.Command, args []string) error {
			pref, err := c.app.Substitution.ApplySubstitution(cmd.Context(), userID, templateID, original, preferred)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), pref)
		},
	}
	f := cmd.Flags()
	f.StringVar(&userID, "user", "", "user id")
	f.StringVar(&templateID, "template", "", "template id")
	f.StringVar(&original, "original", "", "exercise id to replace")
	f.StringVar(&preferred, "preferred", "", "replacement exercise id")
	return cmd
}

// =============================================================================
// RECALIBRATION
// =============================================================================

func (c *cli) recalibrateCmd() *cobra.Command {
	var (
		userID string
		all    bool
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "recalibrate",
		Short: "Adjust template loads from recent RPE history",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case all && userID != "":
				return fmt.Errorf("--user and --all are mutually exclusive")
			case all:
				c.app.Config.RecalibrationDryRun = dryRun
				sched, err := c.app.Scheduler()
				if err != nil {
					return err
				}
				report, err := sched.RunOnce(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			case userID == "":
				return fmt.Errorf("--user or --all is required")
			}

			summary, err := c.app.Recalibration.RecalibrateUserPlans(cmd.Context(), userID, dryRun)
			if summary != nil {
				if perr := printJSON(cmd.OutOrStdout(), summary); perr != nil {
					return perr
				}
			}
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&userID, "user", "", "user id")
	f.BoolVar(&all, "all", false, "every user with an active template")
	f.BoolVar(&dryRun, "dry-run", false, "compute changes without writing them")
	return cmd
}

// =============================================================================
// DUMP
// =============================================================================

// exporter - хранилища, которые умеют отдавать снимок
type exporter interface {
	Export() memory.Snapshot
}

func (c *cli) dumpCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Write the memory or sqlite store state as a YAML snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ex, ok := c.app.Store.(exporter)
			if !ok {
				return fmt.Errorf("store driver %q does not support snapshots", c.app.Config.StoreDriver)
			}
			snap := ex.Export()
			if out == "" || out == "-" {
				return printJSON(cmd.OutOrStdout(), snap)
			}
			if !strings.HasSuffix(out, ".yaml") && !strings.HasSuffix(out, ".yml") {
				out += ".yaml"
			}
			if err := memory.WriteSnapshot(out, snap); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "snapshot written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (stdout JSON when empty)")
	return cmd
}
