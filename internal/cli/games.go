package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gambitlabs/gambit/internal/games"
)

// GameInfo summarizes one registered rule set.
type GameInfo struct {
	Name       string   `json:"name"`
	MinPlayers int      `json:"min_players"`
	MaxPlayers int      `json:"max_players"`
	Actions    []string `json:"actions"`
}

// NewGamesCommand creates the games command.
func NewGamesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "games",
		Short: "List registered rule sets",
		Long: `List every rule set registered in the catalog, with player
bounds and action names.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listGames(rootOpts, cmd)
		},
	}
}

func listGames(opts *RootOptions, cmd *cobra.Command) error {
	infos := make([]GameInfo, 0, len(games.Names()))
	for _, name := range games.Names() {
		factory, _ := games.Lookup(name)
		spec := factory()
		info := GameInfo{
			Name:       spec.Name,
			MinPlayers: spec.MinPlayers,
			MaxPlayers: spec.MaxPlayers,
		}
		for _, def := range spec.Actions {
			info.Actions = append(info.Actions, def.Name)
		}
		infos = append(infos, info)
	}

	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}
	if formatter.Format == "json" {
		return formatter.Success(infos)
	}

	w := cmd.OutOrStdout()
	for _, info := range infos {
		players := fmt.Sprintf("%d-%d players", info.MinPlayers, info.MaxPlayers)
		if info.MinPlayers == info.MaxPlayers {
			players = fmt.Sprintf("%d players", info.MinPlayers)
		}
		fmt.Fprintf(w, "%s  (%s, %d actions)\n", info.Name, players, len(info.Actions))
		if opts.Verbose {
			for _, a := range info.Actions {
				fmt.Fprintf(w, "  %s\n", a)
			}
		}
	}
	return nil
}
