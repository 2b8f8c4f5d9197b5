package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Ngone6325/appfac"
	"github.com/Ngone6325/appfac/di"
	"github.com/Ngone6325/appfac/flow"
	"github.com/Ngone6325/appfac/internal/config"
)

// Tabs of the app. Each declares the only capabilities its screens may use.
var (
	breedsTab = flow.Definition{
		Name:     "breeds",
		Root:     "breed_list",
		Requires: []appfac.CapabilityID{di.CapBreedList, di.CapLogger},
	}
	favoritesTab = flow.Definition{
		Name:     "favorites",
		Root:     "favorites",
		Requires: []appfac.CapabilityID{di.CapFavorites, di.CapBreedList},
	}
	addFavoriteModal = flow.Definition{
		Name:     "add_favorite",
		Root:     "breed_picker",
		Requires: []appfac.CapabilityID{di.CapFavorites},
	}
)

type app struct {
	mock       bool
	configPath string
	stdout     io.Writer
	stderr     io.Writer

	container *appfac.Container
	nav       *flow.Navigator
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{stdout: stdout, stderr: stderr}
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	return errors.Join(err, a.close())
}

// open builds the container for the selected variant and the tab navigator.
func (a *app) open() error {
	c, err := a.buildContainer(a.variant())
	if err != nil {
		return err
	}
	log, err := appfac.Get[zerolog.Logger](c, di.CapLogger)
	if err != nil {
		_ = c.Close()
		return err
	}
	nav, err := flow.NewNavigator(c, []flow.Definition{breedsTab, favoritesTab}, flow.WithLogger(log))
	if err != nil {
		_ = c.Close()
		return err
	}
	a.container, a.nav = c, nav
	return nil
}

func (a *app) variant() appfac.Variant {
	if a.mock {
		return appfac.Mock
	}
	return appfac.Live
}

func (a *app) buildContainer(v appfac.Variant) (*appfac.Container, error) {
	if v == appfac.Mock {
		return di.MakeMockContainer(nil)
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	// variant: mock in the config file has the same effect as --mock
	cv, err := appfac.ParseVariant(cfg.Variant)
	if err != nil {
		return nil, err
	}
	if cv == appfac.Mock {
		return di.MakeMockContainer(nil)
	}
	return di.MakeLiveContainer(cfg, di.WithLogWriter(a.stderr))
}

func (a *app) close() error {
	var errs []error
	if a.nav != nil {
		errs = append(errs, a.nav.Close())
	}
	if a.container != nil {
		errs = append(errs, a.container.Close())
	}
	return errors.Join(errs...)
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "breeds",
		Short:         "Browse dog breeds and keep favorites",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return fmt.Errorf("start: %w", err)
			}
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&a.mock, "mock", false, "use fixture data instead of the breed API and database")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/appfac/config.yaml)")

	root.AddCommand(
		a.listCommand(),
		a.searchCommand(),
		a.imageCommand(),
		a.favoritesCommand(),
		a.capabilitiesCommand(),
	)
	return root
}
