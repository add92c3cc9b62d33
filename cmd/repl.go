package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"booksly/catalog"
	"booksly/engagement"
	"booksly/errs"
	"booksly/users"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runREPL()
	},
}

func runREPL() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	r := &repl{app: a, in: bufio.NewScanner(os.Stdin)}
	return r.run()
}

// repl holds the session state: the shared services and whoever is logged in.
type repl struct {
	*app
	in      *bufio.Scanner
	current *users.User
}

func (r *repl) run() error {
	fmt.Println("Welcome to booksly.")
	fmt.Println("Commands: signup, login, whoami, user search/follow/unfollow/profile,")
	fmt.Println("          book search/rate/read, collection list/create/rename/add/remove/delete,")
	fmt.Println("          top releases, popular books [followers], recommend, quit")

	for {
		fmt.Print("\n> ")
		if !r.in.Scan() {
			return nil
		}

		input := strings.TrimSpace(r.in.Text())
		if input == "" {
			continue
		}
		if input == "quit" {
			return nil
		}

		if err := r.dispatch(strings.Fields(input)); err != nil {
			// Store unavailability is the only condition that ends the
			// session; everything else is reported and the loop continues.
			if errors.Is(err, errs.ErrUnavailable) {
				r.log.WithError(err).Error("store unavailable, ending session")
				return err
			}
			fmt.Println(err.Error())
		}
	}
}

var errMissingArgs = errs.Validation("missing arguments for that command")

func (r *repl) dispatch(args []string) error {
	cmd := args[0]
	rest := args[1:]

	switch cmd {
	case "signup":
		return r.signup()
	case "login":
		if len(rest) < 1 {
			return errMissingArgs
		}
		return r.login(rest[0])
	case "whoami":
		if r.current == nil {
			fmt.Println("You are not currently logged in")
		} else {
			fmt.Printf("You are logged in as %s (id = %d)\n", r.current.Username, r.current.ID)
		}
		return nil
	case "user":
		return r.userCommand(rest)
	case "book":
		return r.bookCommand(rest)
	case "collection":
		return r.collectionCommand(rest)
	case "top":
		if len(rest) == 1 && rest[0] == "releases" {
			return r.topReleases()
		}
	case "popular":
		if len(rest) == 1 && rest[0] == "books" {
			return r.popularBooks()
		}
		if len(rest) == 2 && rest[0] == "books" && rest[1] == "followers" {
			return r.popularBooksFollowers()
		}
	case "recommend":
		return r.recommend()
	}

	fmt.Println("Unknown command")
	return nil
}

func (r *repl) requireLogin() (*users.User, error) {
	if r.current == nil {
		return nil, errs.Validation("you must be logged in for that command")
	}
	return r.current, nil
}

func (r *repl) readLine(prompt string) string {
	fmt.Print(prompt)
	if !r.in.Scan() {
		return ""
	}
	return strings.TrimSpace(r.in.Text())
}

// readPassword masks input when stdin is a terminal and falls back to a plain
// line read otherwise (tests, piped input).
func (r *repl) readPassword(prompt string) string {
	fmt.Print(prompt)
	if term.IsTerminal(int(syscall.Stdin)) {
		b, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(b))
		}
	}
	if !r.in.Scan() {
		return ""
	}
	return strings.TrimSpace(r.in.Text())
}

func (r *repl) signup() error {
	var username string
	for {
		username = r.readLine("username: ")
		taken, err := r.users.UsernameTaken(username)
		if err != nil {
			return err
		}
		if username != "" && !taken {
			break
		}
		fmt.Println("A user with that username already exists, please provide a new one")
	}

	password := r.readPassword("password: ")

	var email string
	for {
		email = r.readLine("email: ")
		taken, err := r.users.EmailTaken(email)
		if err != nil {
			return err
		}
		if email != "" && !taken {
			break
		}
		fmt.Println("That email is already taken, please provide a new one")
	}

	first := r.readLine("first name: ")
	last := r.readLine("last name: ")

	u, err := r.users.Signup(users.SignupRequest{
		Username:  username,
		Password:  password,
		Email:     email,
		FirstName: first,
		LastName:  last,
	})
	if err != nil {
		return err
	}

	r.current = u
	fmt.Printf("Welcome, %s! You are now logged in.\n", u.Username)
	return nil
}

func (r *repl) login(username string) error {
	password := r.readPassword("password: ")

	u, err := r.users.Login(username, password)
	if err != nil {
		return err
	}

	r.current = u
	fmt.Println("Correct password, you are now logged in")
	return nil
}

func (r *repl) userCommand(args []string) error {
	if len(args) < 2 {
		return errMissingArgs
	}

	switch args[0] {
	case "search":
		u, err := r.users.ByEmail(args[1])
		if err != nil {
			return err
		}
		fmt.Printf("user id: %d\n", u.ID)
		fmt.Printf("username: %s\n", u.Username)
		fmt.Printf("email: %s\n", u.Email)
		fmt.Printf("name: %s %s\n", u.FirstName, u.LastName)
		return nil

	case "follow":
		me, err := r.requireLogin()
		if err != nil {
			return err
		}
		if err := r.users.Follow(me.ID, args[1]); err != nil {
			return err
		}
		fmt.Printf("You are now following %s\n", args[1])
		return nil

	case "unfollow":
		me, err := r.requireLogin()
		if err != nil {
			return err
		}
		if err := r.users.Unfollow(me.ID, args[1]); err != nil {
			return err
		}
		fmt.Printf("You are no longer following %s\n", args[1])
		return nil

	case "profile":
		if len(args) < 3 {
			return errMissingArgs
		}
		return r.userProfile(args[1], args[2])
	}

	fmt.Println("Unknown command")
	return nil
}

func (r *repl) userProfile(username, ordering string) error {
	p, err := r.users.Profile(username)
	if err != nil {
		return err
	}

	fmt.Printf("username: %s\n", p.Username)
	fmt.Printf("collection count: %d\n", p.Collections)
	fmt.Printf("follower count: %d\n", p.Followers)
	fmt.Printf("following count: %d\n", p.Following)

	id, err := r.users.ID(username)
	if err != nil {
		return err
	}

	switch ordering {
	case "ratings":
		top, err := r.users.TopRated(id)
		if err != nil {
			return err
		}
		fmt.Println("\nTop ratings:")
		for i, b := range top {
			fmt.Printf("%d) %s: %d stars\n", i+1, b.Title, b.Rating)
		}
	case "read":
		top, err := r.users.TopRead(id)
		if err != nil {
			return err
		}
		fmt.Println("\nTop read times:")
		for i, b := range top {
			fmt.Printf("%d) %s: %d seconds\n", i+1, b.Title, b.Seconds)
		}
	case "both":
		top, err := r.users.TopBoth(id)
		if err != nil {
			return err
		}
		fmt.Println("\nTop books by rating and read time")
		for i, b := range top {
			rating := "none"
			if b.Rating > 0 {
				rating = fmt.Sprintf("%d stars", b.Rating)
			}
			read := "none"
			if b.Seconds > 0 {
				read = fmt.Sprintf("%d seconds", b.Seconds)
			}
			fmt.Printf("%d) %s: %s, %s\n", i+1, b.Title, rating, read)
		}
	default:
		return errs.Validation("invalid result ordering, expected either ratings, read, or both")
	}
	return nil
}

func (r *repl) bookCommand(args []string) error {
	if len(args) < 1 {
		return errMissingArgs
	}

	switch args[0] {
	case "search":
		return r.bookSearch()
	case "rate":
		if len(args) < 3 {
			return errMissingArgs
		}
		return r.bookRate(args[1], args[2])
	case "read":
		return r.bookRead(args[1:])
	}

	fmt.Println("Unknown command")
	return nil
}

func (r *repl) bookSearch() error {
	var field catalog.Field
	for {
		f, err := catalog.ParseField(r.readLine("field name: "))
		if err == nil {
			field = f
			break
		}
		fmt.Println("Invalid field name, please try again")
	}

	termText := r.readLine("search term: ")

	var key catalog.SortKey
	for {
		k, err := catalog.ParseSortKey(r.readLine("sort key: "))
		if err == nil {
			key = k
			break
		}
		fmt.Println("Invalid sort key, please try again")
	}

	var dir catalog.Direction
	for {
		d, err := catalog.ParseDirection(r.readLine("asc/desc: "))
		if err == nil {
			dir = d
			break
		}
		fmt.Println("Invalid ordering, please try again")
	}

	ids, err := r.catalog.Search(field, termText, key, dir)
	if err != nil {
		return err
	}

	fmt.Println()
	for _, id := range ids {
		if err := r.printBookDetail(id); err != nil {
			return err
		}
		fmt.Println()
	}
	return nil
}

func (r *repl) printBookDetail(id int64) error {
	d, err := r.catalog.Detail(id)
	if err != nil {
		return err
	}

	fmt.Printf("%s [%d]\n", d.Title, d.ID)
	fmt.Printf("- audience: %s, pages: %d\n", d.Audience, d.Length)
	fmt.Printf("- authors: %s\n", strings.Join(d.Authors, ", "))
	fmt.Printf("- publishers: %s\n", strings.Join(d.Publishers, ", "))
	for _, br := range d.Ratings {
		fmt.Printf("- %s rated it %d stars\n", br.Username, br.Rating)
	}
	return nil
}

// bookRate routes to an in-place update when the user has already rated the
// book, including when a concurrent rate wins the insert race.
func (r *repl) bookRate(bookArg, ratingArg string) error {
	me, err := r.requireLogin()
	if err != nil {
		return err
	}

	bookID, err := strconv.ParseInt(bookArg, 10, 64)
	if err != nil {
		return errs.Validation("book id must be an integer")
	}
	rating, err := strconv.Atoi(ratingArg)
	if err != nil {
		return errs.Validation("rating must be an integer")
	}

	rated, err := r.engagement.HasRated(me.ID, bookID)
	if err != nil {
		return err
	}
	if rated {
		return r.engagement.UpdateRating(me.ID, bookID, rating)
	}

	err = r.engagement.Rate(me.ID, bookID, rating)
	if errors.Is(err, engagement.ErrDuplicateRating) {
		return r.engagement.UpdateRating(me.ID, bookID, rating)
	}
	return err
}

func (r *repl) bookRead(args []string) error {
	me, err := r.requireLogin()
	if err != nil {
		return err
	}

	if len(args) >= 3 && args[0] == "random" {
		start, err := parseTimestamp(args[1])
		if err != nil {
			return err
		}
		end, err := parseTimestamp(args[2])
		if err != nil {
			return err
		}

		bookID, err := r.engagement.RecordRandomSession(me.ID, start, end)
		if err != nil {
			return err
		}
		fmt.Printf("Logged a session for book %d\n", bookID)
		return nil
	}

	if len(args) < 5 {
		return errMissingArgs
	}

	bookID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return errs.Validation("book id must be an integer")
	}
	startPage, err := strconv.Atoi(args[1])
	if err != nil {
		return errs.Validation("start page must be an integer")
	}
	endPage, err := strconv.Atoi(args[2])
	if err != nil {
		return errs.Validation("end page must be an integer")
	}
	start, err := parseTimestamp(args[3])
	if err != nil {
		return err
	}
	end, err := parseTimestamp(args[4])
	if err != nil {
		return err
	}

	return r.engagement.RecordSession(me.ID, bookID, startPage, endPage, start, end)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02 15:04:05", strings.ReplaceAll(s, "T", " "))
	if err != nil {
		return time.Time{}, errs.Validation("timestamps must be of the form YYYY-MM-DDTHH:MM:SS")
	}
	return t.UTC(), nil
}

func (r *repl) collectionCommand(args []string) error {
	me, err := r.requireLogin()
	if err != nil {
		return err
	}
	if len(args) < 1 {
		return errMissingArgs
	}

	parseID := func(s string) (int64, error) {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, errs.Validation("ids must be integers")
		}
		return id, nil
	}

	switch args[0] {
	case "list":
		list, err := r.collections.List(me.ID)
		if err != nil {
			return err
		}
		for _, c := range list {
			fmt.Printf("%s [%d]\n", c.Name, c.ID)
			fmt.Printf("- Number of books: %d\n", c.BookCount)
			fmt.Printf("- Total pages: %d\n", c.TotalPages)
		}
		return nil

	case "create":
		if len(args) < 2 {
			return errMissingArgs
		}
		name := strings.Join(args[1:], " ")
		id, err := r.collections.Create(me.ID, name)
		if err != nil {
			return err
		}
		fmt.Printf("Created collection %s [%d]\n", name, id)
		return nil

	case "rename":
		if len(args) < 3 {
			return errMissingArgs
		}
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		return r.collections.Rename(me.ID, id, strings.Join(args[2:], " "))

	case "delete":
		if len(args) < 2 {
			return errMissingArgs
		}
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		return r.collections.Delete(me.ID, id)

	case "add", "remove":
		if len(args) < 3 {
			return errMissingArgs
		}
		collectionID, err := parseID(args[1])
		if err != nil {
			return err
		}
		bookID, err := parseID(args[2])
		if err != nil {
			return err
		}
		if args[0] == "add" {
			return r.collections.AddBook(me.ID, collectionID, bookID)
		}
		return r.collections.RemoveBook(me.ID, collectionID, bookID)
	}

	fmt.Println("Unknown command")
	return nil
}

func (r *repl) topReleases() error {
	titles, err := r.insights.TopReleases()
	if err != nil {
		return err
	}
	printNumbered(titles)
	return nil
}

func (r *repl) popularBooks() error {
	titles, err := r.insights.PopularBooks()
	if err != nil {
		return err
	}
	printNumbered(titles)
	return nil
}

func (r *repl) popularBooksFollowers() error {
	me, err := r.requireLogin()
	if err != nil {
		return err
	}
	titles, err := r.insights.PopularAmongFollowers(me.ID)
	if err != nil {
		return err
	}
	printNumbered(titles)
	return nil
}

func (r *repl) recommend() error {
	me, err := r.requireLogin()
	if err != nil {
		return err
	}
	recs, err := r.insights.Recommend(me.ID)
	if err != nil {
		return err
	}
	for i, rec := range recs {
		fmt.Printf("%d. %s - %.2f\n", i+1, rec.Title, rec.AverageRating)
	}
	return nil
}

func printNumbered(titles []string) {
	for i, t := range titles {
		fmt.Printf("%d. %s\n", i+1, t)
	}
}
