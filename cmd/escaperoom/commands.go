package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"escaperoom/internal/engine"

	"github.com/spf13/cobra"
)

func (c *cli) roomsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rooms",
		Short: "List the rooms in play order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := c.app.Engine()
			fmt.Fprint(cmd.OutOrStdout(), c.renderer.Rooms(e.Title(), e.Rooms()))
			return nil
		},
	}
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show saved progress without starting a game",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := c.app.Engine()
			p, ok := e.GameState(cmd.Context())
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved progress. Run `escaperoom start` to begin.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.renderer.Status(e.Title(), e.Rooms(), p))
			return nil
		},
	}
}

func (c *cli) startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start a new game or resume the saved one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e := c.app.Engine()
			p := e.StartGame(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), c.renderer.Status(e.Title(), e.Rooms(), p))
			return nil
		},
	}
}

func (c *cli) enterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enter <room-id>",
		Short: "Enter a room and show its puzzle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := c.app.Engine()
			if err := e.StartRoom(cmd.Context(), args[0]); err != nil {
				return err
			}
			room, _ := e.Room(args[0])
			fmt.Fprint(cmd.OutOrStdout(), c.renderer.Room(room))
			return nil
		},
	}
}

func (c *cli) submitCmd() *cobra.Command {
	var sf submitFlags
	cmd := &cobra.Command{
		Use:   "submit <room-id>",
		Short: "Submit an answer for the current room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := c.app.Engine()
			room, ok := e.Room(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", engine.ErrUnknownRoom, args[0])
			}
			sub, err := buildSubmission(room, sf)
			if err != nil {
				return err
			}
			res, err := e.SubmitResult(cmd.Context(), room.ID, sub, sf.timeTaken)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), c.renderer.Result(res))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&sf.order, "order", nil, "reorder: items in order, comma separated")
	f.StringVar(&sf.choice, "choice", "", "timed-choice: choice id (timeout when the clock ran out)")
	f.StringVar(&sf.stepOne, "step1", "", "multi-step: first step choice id")
	f.BoolVar(&sf.puzzleCompleted, "puzzle-completed", false, "multi-step: the grid puzzle was completed")
	f.StringVar(&sf.powerUp, "power-up", "", "matching-choice: power-up id")
	f.StringVar(&sf.main, "main", "", "choice-final: concept id")
	f.StringVar(&sf.final, "final", "", "choice-final: final puzzle answer id")
	f.IntVar(&sf.timeTaken, "time", 0, "seconds spent in the room")
	return cmd
}

func (c *cli) hintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hint <room-id>",
		Short: "Record a hint for a room (costs 10 points)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := c.app.Engine()
			if _, ok := e.Room(args[0]); !ok {
				return fmt.Errorf("%w: %s", engine.ErrUnknownRoom, args[0])
			}
			e.UseHint(cmd.Context(), args[0])
			p, ok := e.GameState(cmd.Context())
			if !ok {
				return engine.ErrNoProgress
			}
			rp, _ := p.Room(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Hints used in %s: %d\n", args[0], rp.HintsUsed)
			return nil
		},
	}
}

func (c *cli) eventCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "event <room-id> <choice-id>",
		Short: "Answer the bonus event offered after a room",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			learning, ok := c.app.Engine().ResolveAuxiliaryEvent(args[0], args[1])
			if !ok {
				return fmt.Errorf("room %s has no bonus choice %q", args[0], args[1])
			}
			fmt.Fprintln(cmd.OutOrStdout(), learning)
			return nil
		},
	}
}

func (c *cli) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete saved progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.app.Engine().ResetGame(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Progress cleared.")
			return nil
		},
	}
}

func (c *cli) devCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dev",
		Short: "Serve the dev inspector until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.StartDevHTTP(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "dev inspector running on http://%s; press Ctrl+C to stop\n", c.app.DevAddr())
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()
			return nil
		},
	}
}
