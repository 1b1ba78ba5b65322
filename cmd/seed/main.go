package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"

	"github.com/DirtyReal/cfh-new/internal/database"
	"github.com/DirtyReal/cfh-new/internal/domain"
	"github.com/DirtyReal/cfh-new/internal/voting"
)

// demoPassword is the login password for every seeded account.
const demoPassword = "letmein-demo"

var demoUsers = []struct {
	username string
	email    string
}{
	{"alice", "alice@example.com"},
	{"bob", "bob@example.com"},
	{"carol", "carol@example.com"},
}

var demoMemes = []struct {
	author   int // index into demoUsers
	title    string
	imageURL string
}{
	{0, "When the migration runs clean on the first try", "https://static.cfh.example/memes/migration.png"},
	{1, "My branch after two weeks of 'quick fixes'", "https://static.cfh.example/memes/branch.png"},
	{2, "Friday deploy energy", "https://static.cfh.example/memes/friday.png"},
	{0, "The cache was the problem all along", "https://static.cfh.example/memes/cache.png"},
	{1, "Reading my own code from six months ago", "https://static.cfh.example/memes/sixmonths.png"},
}

var demoComments = []struct {
	meme   int // index into demoMemes
	author int // index into demoUsers
	body   string
}{
	{0, 1, "This has literally never happened to me."},
	{0, 2, "Screenshot or it didn't happen."},
	{1, 0, "rebase. now."},
	{3, 1, "It is always the cache. Or DNS."},
	{3, 0, "It was DNS once. Once."},
}

var demoResources = []struct {
	submitter   int // index into demoUsers
	title       string
	url         string
	category    string
	description string
}{
	{0, "Effective Go", "https://go.dev/doc/effective_go", "guides", "The canonical style and idiom reference."},
	{1, "pgx documentation", "https://pkg.go.dev/github.com/jackc/pgx/v5", "tools", "Driver docs, pooling, and batch usage."},
	{2, "HTTP status codes, annotated", "https://httpstatuses.io", "references", "Every status code with usage notes."},
	{0, "Designing Data-Intensive Applications", "https://dataintensive.net", "books", "Storage, replication, and stream processing fundamentals."},
}

// demoVotes drive the hot/top rankings apart so the seeded feed looks alive.
// Subjects are indices into the created slice for the kind.
var demoVotes = []struct {
	kind    domain.SubjectKind
	subject int
	user    int // index into demoUsers
	cast    domain.Direction
}{
	{domain.KindMeme, 0, 0, domain.DirectionUp},
	{domain.KindMeme, 0, 1, domain.DirectionUp},
	{domain.KindMeme, 0, 2, domain.DirectionUp},
	{domain.KindMeme, 1, 0, domain.DirectionUp},
	{domain.KindMeme, 1, 2, domain.DirectionDown},
	{domain.KindMeme, 2, 1, domain.DirectionUp},
	{domain.KindMeme, 3, 2, domain.DirectionDown},
	{domain.KindComment, 0, 0, domain.DirectionUp},
	{domain.KindComment, 3, 2, domain.DirectionUp},
	{domain.KindComment, 3, 0, domain.DirectionUp},
	{domain.KindResource, 0, 1, domain.DirectionUp},
	{domain.KindResource, 0, 2, domain.DirectionUp},
	{domain.KindResource, 1, 0, domain.DirectionUp},
	{domain.KindResource, 2, 0, domain.DirectionDown},
}

type seedCounts struct {
	users     int
	memes     int
	comments  int
	resources int
	votes     int
}

func main() {
	var (
		databaseURL = flag.String("database", os.Getenv("DATABASE_URL"), "Postgres URL (or set DATABASE_URL env)")
		verbose     = flag.Bool("verbose", false, "Verbose logging")
	)
	flag.Parse()

	if *databaseURL == "" {
		log.Fatal("Postgres URL required (--database or DATABASE_URL env)")
	}

	// Configure logging
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, *databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	counts, err := seed(ctx, pool)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	slog.Info("Seeding complete",
		"users", counts.users,
		"memes", counts.memes,
		"comments", counts.comments,
		"resources", counts.resources,
		"votes", counts.votes,
		"demo_password", demoPassword)
}

func seed(ctx context.Context, pool *pgxpool.Pool) (seedCounts, error) {
	users := database.NewUserRepo(pool)
	memes := database.NewMemeRepo(pool)
	comments := database.NewCommentRepo(pool)
	resources := database.NewResourceRepo(pool)

	var counts seedCounts

	// The first demo account doubles as the already-seeded marker.
	if _, err := users.GetByUsername(ctx, demoUsers[0].username); err == nil {
		slog.Info("Demo data already present, nothing to do")
		return counts, nil
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return counts, fmt.Errorf("checking for existing demo data: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return counts, fmt.Errorf("hashing demo password: %w", err)
	}

	createdUsers := make([]*domain.User, 0, len(demoUsers))
	for _, du := range demoUsers {
		user, err := users.Create(ctx, du.username, du.email, string(hash))
		if err != nil {
			return counts, fmt.Errorf("creating user %q: %w", du.username, err)
		}
		slog.Debug("Created user", "id", user.ID, "username", user.Username)
		createdUsers = append(createdUsers, user)
		counts.users++
	}

	createdMemes := make([]*domain.Meme, 0, len(demoMemes))
	for _, dm := range demoMemes {
		meme, err := memes.Create(ctx, createdUsers[dm.author].ID, dm.title, dm.imageURL)
		if err != nil {
			return counts, fmt.Errorf("creating meme %q: %w", dm.title, err)
		}
		slog.Debug("Created meme", "id", meme.ID, "title", meme.Title)
		createdMemes = append(createdMemes, meme)
		counts.memes++
	}

	createdComments := make([]*domain.Comment, 0, len(demoComments))
	for _, dc := range demoComments {
		comment, err := comments.Create(ctx, createdMemes[dc.meme].ID, createdUsers[dc.author].ID, dc.body)
		if err != nil {
			return counts, fmt.Errorf("creating comment on meme %d: %w", createdMemes[dc.meme].ID, err)
		}
		createdComments = append(createdComments, comment)
		counts.comments++
	}

	createdResources := make([]*domain.Resource, 0, len(demoResources))
	for _, dr := range demoResources {
		resource, err := resources.Create(ctx, createdUsers[dr.submitter].ID, dr.title, dr.url, dr.category, dr.description)
		if err != nil {
			return counts, fmt.Errorf("creating resource %q: %w", dr.title, err)
		}
		createdResources = append(createdResources, resource)
		counts.resources++
	}

	// Votes go through the real engine so counters and vote records stay
	// consistent with each other.
	engine := voting.NewEngine(database.NewVoteStore(pool), nil, clockwork.NewRealClock())
	if err := engine.Warm(ctx); err != nil {
		return counts, fmt.Errorf("warming vote engine: %w", err)
	}
	engine.Start()
	defer engine.Stop()

	for _, dv := range demoVotes {
		var subjectID int64
		switch dv.kind {
		case domain.KindMeme:
			subjectID = createdMemes[dv.subject].ID
		case domain.KindComment:
			subjectID = createdComments[dv.subject].ID
		case domain.KindResource:
			subjectID = createdResources[dv.subject].ID
		}

		if _, err := engine.CastVote(ctx, dv.kind, subjectID, createdUsers[dv.user].ID, dv.cast); err != nil {
			return counts, fmt.Errorf("casting %s vote on %s %d: %w", dv.cast, dv.kind, subjectID, err)
		}
		counts.votes++
	}

	return counts, nil
}
