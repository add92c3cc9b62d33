package cmd

import (
	"github.com/spf13/cobra"

	"booksly/seed"
)

var seedOpts = seed.DefaultOptions()

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the configured database with synthetic sample data",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		loader := seed.New(a.st, a.log)
		if err := loader.Load(seedOpts); err != nil {
			return err
		}

		a.log.Info("sample data loaded")
		return nil
	},
}

func init() {
	f := seedCmd.Flags()
	f.IntVar(&seedOpts.Users, "users", seedOpts.Users, "number of users")
	f.IntVar(&seedOpts.Contributors, "contributors", seedOpts.Contributors, "number of contributors")
	f.IntVar(&seedOpts.Genres, "genres", seedOpts.Genres, "number of genres")
	f.IntVar(&seedOpts.Books, "books", seedOpts.Books, "number of books")
	f.IntVar(&seedOpts.Ratings, "ratings", seedOpts.Ratings, "number of ratings")
	f.IntVar(&seedOpts.Sessions, "sessions", seedOpts.Sessions, "number of reading sessions")
	f.IntVar(&seedOpts.Follows, "follows", seedOpts.Follows, "number of follow edges")
	f.IntVar(&seedOpts.Accesses, "accesses", seedOpts.Accesses, "number of access-log rows")
}
