package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"musicus/internal/library"
)

type listFunc func(ctx *commandContext) *cobra.Command

func newEntityCommands(ctx *commandContext) []*cobra.Command {
	specs := []struct {
		kind  library.Kind
		short string
		list  listFunc
	}{
		{library.KindPerson, "Composers and performers", newPersonListCommand},
		{library.KindInstrument, "Instruments", newInstrumentListCommand},
		{library.KindEnsemble, "Ensembles", newEnsembleListCommand},
		{library.KindWork, "Works", newWorkListCommand},
		{library.KindRecording, "Recordings", newRecordingListCommand},
		{library.KindMedium, "Mediums", newMediumListCommand},
	}

	cmds := make([]*cobra.Command, 0, len(specs))
	for _, spec := range specs {
		cmd := &cobra.Command{
			Use:     string(spec.kind),
			Aliases: []string{string(spec.kind) + "s"},
			Short:   spec.short,
		}
		cmd.AddCommand(spec.list(ctx))
		cmd.AddCommand(newShowCommand(ctx, spec.kind))
		cmd.AddCommand(newDeleteCommand(ctx, spec.kind))
		cmds = append(cmds, cmd)
	}
	return cmds
}

func newShowCommand(ctx *commandContext, kind library.Kind) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: fmt.Sprintf("Show a %s", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd, func(c context.Context, store *library.Store) error {
				doc, err := loadDocument(c, store, kind, args[0])
				if err != nil {
					return err
				}
				return writeDocument(cmd, doc, format)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format: yaml or json")
	return cmd
}

func newDeleteCommand(ctx *commandContext, kind library.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: fmt.Sprintf("Delete a %s that nothing references", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd, func(c context.Context, store *library.Store) error {
				if _, err := loadDocument(c, store, kind, args[0]); err != nil {
					return err
				}
				if err := deleteEntity(c, store, kind, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", kind, args[0])
				return nil
			})
		},
	}
}

func printTable(cmd *cobra.Command, kind library.Kind, headers []string, rows [][]string, aligns []columnAlignment) {
	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintf(out, "No %ss found\n", kind)
		return
	}
	fmt.Fprintln(out, heading(kind))
	fmt.Fprintln(out, renderTable(headers, rows, aligns))
}

func newPersonListCommand(ctx *commandContext) *cobra.Command {
	var recent int
	var search string
	var composers bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List persons",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd, func(c context.Context, store *library.Store) error {
				var persons []library.Person
				var err error
				switch {
				case recent > 0:
					persons, err = store.GetRecentPersons(c, recent)
				case search != "":
					persons, err = store.SearchPersons(c, search)
				case composers:
					persons, err = store.GetComposers(c)
				default:
					persons, err = store.GetPersons(c)
				}
				if err != nil {
					return err
				}
				if recent <= 0 {
					sortPersons(persons)
				}
				rows := make([][]string, len(persons))
				for i, p := range persons {
					rows[i] = []string{p.ID, p.NameLastFirst(), formatWhen(p.LastUsed), formatWhen(p.LastPlayed)}
				}
				printTable(cmd, library.KindPerson, []string{"ID", "Name", "Last used", "Last played"}, rows, nil)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&recent, "recent", 0, "Show the N most recently used persons")
	cmd.Flags().StringVar(&search, "search", "", "Only persons whose name contains this text")
	cmd.Flags().BoolVar(&composers, "composers", false, "Only persons who composed a stored work")
	return cmd
}

func newInstrumentListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List instruments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd, func(c context.Context, store *library.Store) error {
				instruments, err := store.GetInstruments(c)
				if err != nil {
					return err
				}
				sortByName(instruments, func(i library.Instrument) string { return i.Name })
				rows := make([][]string, len(instruments))
				for i, inst := range instruments {
					rows[i] = []string{inst.ID, inst.Name, formatWhen(inst.LastUsed)}
				}
				printTable(cmd, library.KindInstrument, []string{"ID", "Name", "Last used"}, rows, nil)
				return nil
			})
		},
	}
}

func newEnsembleListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List ensembles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd, func(c context.Context, store *library.Store) error {
				ensembles, err := store.GetEnsembles(c)
				if err != nil {
					return err
				}
				sortByName(ensembles, func(e library.Ensemble) string { return e.Name })
				rows := make([][]string, len(ensembles))
				for i, e := range ensembles {
					rows[i] = []string{e.ID, e.Name, formatWhen(e.LastUsed), formatWhen(e.LastPlayed)}
				}
				printTable(cmd, library.KindEnsemble, []string{"ID", "Name", "Last used", "Last played"}, rows, nil)
				return nil
			})
		},
	}
}

func newWorkListCommand(ctx *commandContext) *cobra.Command {
	var composer, search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List works, optionally by one composer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd, func(c context.Context, store *library.Store) error {
				var works []library.Work
				switch {
				case composer != "":
					found, err := store.GetWorks(c, composer)
					if err != nil {
						return err
					}
					works = found
				case search != "":
					found, err := store.SearchWorks(c, search)
					if err != nil {
						return err
					}
					works = found
				default:
					composers, err := store.GetComposers(c)
					if err != nil {
						return err
					}
					for _, p := range composers {
						found, err := store.GetWorks(c, p.ID)
						if err != nil {
							return err
						}
						works = append(works, found...)
					}
				}
				sortWorks(works)
				rows := make([][]string, len(works))
				for i, w := range works {
					rows[i] = []string{w.ID, w.Composer.NameLastFirst(), w.Title, strconv.Itoa(len(w.Parts))}
				}
				printTable(cmd, library.KindWork, []string{"ID", "Composer", "Title", "Parts"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight})
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&composer, "composer", "", "Composer person ID")
	cmd.Flags().StringVar(&search, "search", "", "Only works whose title contains this text")
	return cmd
}

func newRecordingListCommand(ctx *commandContext) *cobra.Command {
	var person, ensemble, work string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recordings by performer, ensemble or work",
		RunE: func(cmd *cobra.Command, args []string) error {
			set := 0
			for _, v := range []string{person, ensemble, work} {
				if v != "" {
					set++
				}
			}
			if set != 1 {
				return errors.New("pass exactly one of --person, --ensemble or --work")
			}
			return ctx.withStore(cmd, func(c context.Context, store *library.Store) error {
				var recordings []library.Recording
				var err error
				switch {
				case person != "":
					recordings, err = store.GetRecordingsForPerson(c, person)
				case ensemble != "":
					recordings, err = store.GetRecordingsForEnsemble(c, ensemble)
				default:
					recordings, err = store.GetRecordingsForWork(c, work)
				}
				if err != nil {
					return err
				}
				rows := make([][]string, len(recordings))
				for i, r := range recordings {
					rows[i] = []string{r.ID, r.Work.Composer.Name() + ": " + r.Work.Title, performers(r), formatWhen(r.LastPlayed)}
				}
				printTable(cmd, library.KindRecording, []string{"ID", "Work", "Performers", "Last played"}, rows, nil)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&person, "person", "", "Performer person ID")
	cmd.Flags().StringVar(&ensemble, "ensemble", "", "Ensemble ID")
	cmd.Flags().StringVar(&work, "work", "", "Work ID")
	return cmd
}

func newMediumListCommand(ctx *commandContext) *cobra.Command {
	var sourceID, person, ensemble string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List mediums",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd, func(c context.Context, store *library.Store) error {
				var mediums []library.Medium
				var err error
				switch {
				case sourceID != "":
					mediums, err = store.GetMediumsBySourceID(c, sourceID)
				case person != "":
					mediums, err = store.GetMediumsForPerson(c, person)
				case ensemble != "":
					mediums, err = store.GetMediumsForEnsemble(c, ensemble)
				default:
					mediums, err = store.GetMediums(c)
				}
				if err != nil {
					return err
				}
				rows := make([][]string, len(mediums))
				for i, m := range mediums {
					rows[i] = []string{m.ID, m.Name, strconv.Itoa(m.TrackCount()), shortID(m.DiscID), formatWhen(m.LastUsed)}
				}
				printTable(cmd, library.KindMedium, []string{"ID", "Name", "Tracks", "Source ID", "Last used"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight})
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&sourceID, "source-id", "", "Only mediums imported from this source")
	cmd.Flags().StringVar(&person, "person", "", "Only mediums with this performer")
	cmd.Flags().StringVar(&ensemble, "ensemble", "", "Only mediums with this ensemble")
	return cmd
}
