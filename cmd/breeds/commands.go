package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Ngone6325/appfac"
	"github.com/Ngone6325/appfac/di"
	"github.com/Ngone6325/appfac/flow"
	"github.com/Ngone6325/appfac/internal/config"
	"github.com/Ngone6325/appfac/model"
)

var headerStyle = lipgloss.NewStyle().Bold(true)

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle()
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

func breedRows(breeds []model.Breed) [][]string {
	rows := make([][]string, len(breeds))
	for i, b := range breeds {
		rows[i] = []string{b.Name, strings.Join(b.SubBreeds, ", ")}
	}
	return rows
}

func (a *app) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every breed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := a.nav.Activate(breedsTab.Name)
			if err != nil {
				return err
			}
			svc, err := appfac.Get[model.BreedListService](f, di.CapBreedList)
			if err != nil {
				return err
			}
			breeds, err := svc.ListBreeds(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Breed", "Sub-breeds"}, breedRows(breeds)))
			return nil
		},
	}
}

func (a *app) searchCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search breeds by name, tolerating typos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.nav.Activate(breedsTab.Name)
			if err != nil {
				return err
			}
			if _, err := f.Push("search_results", args[0]); err != nil {
				return err
			}
			svc, err := appfac.Get[model.BreedListService](f, di.CapBreedList)
			if err != nil {
				return err
			}
			breeds, err := svc.Search(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			if len(breeds) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no breeds match %q\n", args[0])
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Breed", "Sub-breeds"}, breedRows(breeds)))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum number of results (0 for all)")
	return cmd
}

func (a *app) imageCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "image <breed>",
		Short: "Print a random image URL for a breed or breed/sub-breed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.nav.Activate(breedsTab.Name)
			if err != nil {
				return err
			}
			if _, err := f.Push("breed_detail", args[0]); err != nil {
				return err
			}
			svc, err := appfac.Get[model.BreedListService](f, di.CapBreedList)
			if err != nil {
				return err
			}
			img, err := svc.RandomImage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			logger := appfac.MustGet[zerolog.Logger](f, di.CapLogger)
			logger.Debug().Str("breed", args[0]).Msg("image fetched")
			fmt.Fprintln(cmd.OutOrStdout(), img)
			return nil
		},
	}
}

func (a *app) favoritesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "Manage favorite breeds",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List favorites in the order they were added",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				f, err := a.nav.Activate(favoritesTab.Name)
				if err != nil {
					return err
				}
				svc, err := appfac.Get[model.FavoritesService](f, di.CapFavorites)
				if err != nil {
					return err
				}
				favs, err := svc.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(favs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no favorites yet")
					return nil
				}
				rows := make([][]string, len(favs))
				for i, fav := range favs {
					rows[i] = []string{fav.Breed, fav.AddedAt.Local().Format("2006-01-02 15:04")}
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Breed", "Added"}, rows))
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <breed>",
			Short: "Mark a breed as favorite",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, err := a.nav.Activate(favoritesTab.Name); err != nil {
					return err
				}
				return a.inModal(addFavoriteModal, func(modal *flow.Flow) error {
					svc, err := appfac.Get[model.FavoritesService](modal, di.CapFavorites)
					if err != nil {
						return err
					}
					fav, err := svc.Add(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", fav.Breed)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "remove <breed>",
			Short: "Unmark a favorite breed",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				f, err := a.nav.Activate(favoritesTab.Name)
				if err != nil {
					return err
				}
				svc, err := appfac.Get[model.FavoritesService](f, di.CapFavorites)
				if err != nil {
					return err
				}
				if err := svc.Remove(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", model.NormalizeBreed(args[0]))
				return nil
			},
		},
	)
	return cmd
}

// inModal presents def over the active tab, runs fn in it and dismisses it.
// A failure to tear the modal down is reported along with fn's error.
func (a *app) inModal(def flow.Definition, fn func(*flow.Flow) error) (err error) {
	modal, err := a.nav.Present(def)
	if err != nil {
		return err
	}
	defer func() {
		if derr := a.nav.Dismiss(); derr != nil {
			err = errors.Join(err, fmt.Errorf("dismiss %s: %w", def.Name, derr))
		}
	}()
	return fn(modal)
}

func (a *app) capabilitiesCommand() *cobra.Command {
	var skipParity bool
	cmd := &cobra.Command{
		Use:   "capabilities",
		Short: "Show the registered capabilities and check live/mock parity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			c := a.container
			rows := make([][]string, 0, len(c.Capabilities()))
			for _, id := range c.Capabilities() {
				typ, _ := c.TypeOf(id)
				life, _ := c.Lifetime(id)
				rows = append(rows, []string{string(id), typ.String(), life.String()})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s container\n", c.Variant())
			fmt.Fprintln(out, renderTable([]string{"Capability", "Type", "Lifetime"}, rows))
			if skipParity {
				return nil
			}

			other, err := a.counterpart()
			if err != nil {
				return fmt.Errorf("build %s container: %w", counterpartVariant(c.Variant()), err)
			}
			defer func() { err = errors.Join(err, other.Close()) }()
			if err := appfac.CheckParity(c, other); err != nil {
				return err
			}
			fmt.Fprintf(out, "parity with %s container: ok\n", other.Variant())
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipParity, "no-parity", false, "skip building the other variant")
	return cmd
}

func counterpartVariant(v appfac.Variant) appfac.Variant {
	if v == appfac.Mock {
		return appfac.Live
	}
	return appfac.Mock
}

// counterpart builds the variant the running container is not.
func (a *app) counterpart() (*appfac.Container, error) {
	if a.container.Variant() == appfac.Live {
		return di.MakeMockContainer(nil)
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	return di.MakeLiveContainer(cfg, di.WithLogWriter(a.stderr))
}
