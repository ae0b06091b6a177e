package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/giftgraph/pkg/errors"
	"github.com/matzehuels/giftgraph/pkg/gift"
)

// withService opens the configured store for the duration of fn.
func (c *CLI) withService(ctx context.Context, fn func(*gift.Service) error) error {
	svc, err := c.newService(ctx)
	if err != nil {
		return err
	}
	defer svc.Store().Close()
	return fn(svc)
}

// giveCommand records a gift.
func (c *CLI) giveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "give <sender> <receiver> <item>",
		Short: "Record a gift from one person to another",
		Long: `Record a gift from one person to another.

Names are matched case-insensitively; people who have not been seen before
are created with a generated avatar and colour.`,
		Example: `  giftgraph give Alice Bob "coffee"`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd.Context(), func(svc *gift.Service) error {
				g, err := svc.Give(cmd.Context(), args[0], args[1], args[2])
				if err != nil {
					return err
				}
				printSuccess("%s gave %s to %s", args[0], StyleHighlight.Render(g.Item), args[1])
				printDetail("id: %s", g.ID)
				return nil
			})
		},
	}
}

// giftsCommand groups the feed commands.
func (c *CLI) giftsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gifts",
		Short: "List and manage gifts",
	}
	cmd.AddCommand(c.giftsListCommand())
	cmd.AddCommand(c.giftsEditCommand())
	cmd.AddCommand(c.giftsDeleteCommand())
	cmd.AddCommand(c.giftsTipCommand())
	cmd.AddCommand(c.giftsCommentCommand())
	return cmd
}

func (c *CLI) giftsListCommand() *cobra.Command {
	var (
		query    string
		asJSON   bool
		comments bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the gift feed, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd.Context(), func(svc *gift.Service) error {
				snap, err := svc.Snapshot(cmd.Context())
				if err != nil {
					return err
				}
				gifts := gift.Search(snap.Gifts, snap.Users, query)
				if asJSON {
					enc := json.NewEncoder(stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(gifts)
				}
				if len(gifts) == 0 {
					printInfo("No gifts")
					return nil
				}
				fmt.Fprintln(stdout, feedTable(gifts, snap.UserByID(), time.Now()))
				if comments {
					printComments(gifts)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "filter by item, sender or receiver")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().BoolVar(&comments, "comments", false, "show comments below the table")
	return cmd
}

// feedTable renders gifts as a table.
func feedTable(gifts []gift.Gift, users map[string]gift.User, now time.Time) string {
	rows := make([][]string, len(gifts))
	for i, g := range gifts {
		rows[i] = []string{
			g.ID,
			users[g.SenderID].Name + " " + iconArrow + " " + users[g.ReceiverID].Name,
			g.Item,
			strconv.Itoa(g.Tips),
			strconv.Itoa(len(g.Comments)),
			gift.FormatAge(g.Timestamp, now),
		}
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Gift", "Item", "Tips", "Comments", "Age").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0 || col == 5:
				return lipgloss.NewStyle().Foreground(colorDim)
			case col == 3:
				return StyleNumber
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

func printComments(gifts []gift.Gift) {
	for _, g := range gifts {
		if len(g.Comments) == 0 {
			continue
		}
		printNewline()
		fmt.Fprintln(stdout, StyleTitle.Render(g.Item) + " " + StyleDim.Render(g.ID))
		comments := append([]gift.Comment(nil), g.Comments...)
		gift.SortComments(comments)
		for _, cm := range comments {
			printKeyValue(cm.UserName, cm.Text)
		}
	}
}

func (c *CLI) giftsEditCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <sender> <receiver> <item>",
		Short: "Change who gave what to whom",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd.Context(), func(svc *gift.Service) error {
				if err := svc.Edit(cmd.Context(), args[0], args[1], args[2], args[3]); err != nil {
					return err
				}
				printSuccess("Updated %s", args[0])
				return nil
			})
		},
	}
}

func (c *CLI) giftsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a gift",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd.Context(), func(svc *gift.Service) error {
				if err := svc.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				printSuccess("Deleted %s", args[0])
				return nil
			})
		},
	}
}

func (c *CLI) giftsTipCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tip <id>",
		Short: "Add a tip to a gift",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd.Context(), func(svc *gift.Service) error {
				tips, err := svc.Tip(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printSuccess("%s now has %s tips", args[0], StyleNumber.Render(strconv.Itoa(tips)))
				return nil
			})
		},
	}
}

func (c *CLI) giftsCommentCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "comment <id> <user> <text>",
		Short:   "Comment on a gift",
		Example: `  giftgraph gifts comment g-1234 Carol "nice!"`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd.Context(), func(svc *gift.Service) error {
				cm, err := svc.Comment(cmd.Context(), args[0], args[1], args[2])
				if err != nil {
					return err
				}
				printSuccess("%s commented on %s", cm.UserName, args[0])
				return nil
			})
		},
	}
}

// usersCommand lists everyone in the store.
func (c *CLI) usersCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List people and how much they gave and received",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd.Context(), func(svc *gift.Service) error {
				snap, err := svc.Snapshot(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(snap.Users)
				}
				if len(snap.Users) == 0 {
					printInfo("No users")
					return nil
				}
				fmt.Fprintln(stdout, usersTable(snap))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func usersTable(snap gift.Snapshot) string {
	given := map[string]int{}
	received := map[string]int{}
	for _, g := range snap.Gifts {
		given[g.SenderID]++
		received[g.ReceiverID]++
	}
	rows := make([][]string, len(snap.Users))
	for i, u := range snap.Users {
		rows[i] = []string{u.ID, u.Name, strconv.Itoa(given[u.ID]), strconv.Itoa(received[u.ID])}
	}
	users := snap.Users
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Name", "Given", "Received").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Foreground(colorGray).Bold(true)
			}
			if col == 1 && row >= 0 && row < len(users) {
				return lipgloss.NewStyle().Foreground(userColor(users[row].Color))
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// seedCommand loads the demo data set.
func (c *CLI) seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo users and gifts",
		Long: `Load demo users and gifts.

Five people and six gifts are merged into the store; records with the same
ids are replaced, everything else is kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore(cmd.Context())
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()
			if nc, ok := store.(nopCloser); ok {
				store = nc.Store
			}
			seeder, ok := store.(gift.Seeder)
			if !ok {
				return errors.New(errors.ErrCodeUnsupported, "store %q cannot be seeded", c.cfg.Store.Backend)
			}
			users, gifts := gift.DemoData(time.Now())
			if err := seeder.Seed(cmd.Context(), users, gifts); err != nil {
				return err
			}
			printSuccess("Seeded %d users and %d gifts", len(users), len(gifts))
			printNewline()
			printNextStep("Look at it", appName+" view")
			return nil
		},
	}
}
