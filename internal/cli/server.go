package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quizforge/internal/app"
	"quizforge/internal/config"
	"quizforge/internal/domain"
	"quizforge/internal/generate"
	"quizforge/internal/infra/memory"
	pgcatalog "quizforge/internal/infra/postgres"
	rediscatalog "quizforge/internal/infra/redis"
	transport "quizforge/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// catalogRepository is what the server needs from either catalog flavor.
type catalogRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	GetSeedEntries(ctx context.Context, quizID string) ([]domain.LeaderboardEntry, error)
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.CatalogLoader = memory.NewStaticLoader(sampleQuizzes(), sampleSeeds())
	if pool != nil {
		loader = pgcatalog.NewCatalogLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var catalog catalogRepository
	if redisClient != nil {
		catalog = rediscatalog.NewCatalog(redisClient, loader, quizTTL)
	} else {
		catalog = memory.NewCatalog(loader, quizTTL)
	}

	quizID := cfg.Quiz.ID
	if quizID == "" {
		quizID = "quiz-1"
	}

	// The catalog is read once at startup; the session owns the quiz and
	// leaderboard from here on.
	quiz, err := catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	seed, err := catalog.GetSeedEntries(ctx, quizID)
	if err != nil {
		return err
	}

	session := app.NewSession(quiz, seed)

	apiKey := cfg.Generator.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	generator := generate.NewClient(generate.Config{
		APIKey:  apiKey,
		BaseURL: cfg.Generator.BaseURL,
		Model:   cfg.Generator.Model,
		Timeout: config.TTLDuration(cfg.Generator.Timeout, 10*time.Second),
	})

	wsHandler := transport.NewWSHandler(session, generator)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quizforge on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes provides the built-in catalog used when no database is
// configured.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:          "quiz-1",
			Title:       "Programming Fundamentals",
			Description: "Test your knowledge of programming concepts, data structures, and algorithms. Perfect for both beginners and experienced developers!",
			Questions: []domain.Question{
				{
					ID:   "q1",
					Text: "Which data structure follows the Last-In-First-Out (LIFO) principle?",
					Type: domain.SingleSelect,
					Options: []domain.Option{
						{ID: "q1-opt1", Text: "Queue", IsCorrect: false},
						{ID: "q1-opt2", Text: "Stack", IsCorrect: true},
						{ID: "q1-opt3", Text: "Linked List", IsCorrect: false},
						{ID: "q1-opt4", Text: "Array", IsCorrect: false},
					},
					Points:      10,
					Explanation: "A Stack follows the LIFO principle where the last element added is the first one to be removed.",
				},
				{
					ID:   "q2",
					Text: "Which of the following are object-oriented programming principles?",
					Type: domain.MultiSelect,
					Options: []domain.Option{
						{ID: "q2-opt1", Text: "Encapsulation", IsCorrect: true},
						{ID: "q2-opt2", Text: "Iteration", IsCorrect: false},
						{ID: "q2-opt3", Text: "Polymorphism", IsCorrect: true},
						{ID: "q2-opt4", Text: "Assignment", IsCorrect: false},
						{ID: "q2-opt5", Text: "Inheritance", IsCorrect: true},
					},
					Points:      15,
					Explanation: "The main principles of OOP are Encapsulation, Polymorphism, Inheritance, and Abstraction.",
				},
				{
					ID:   "q3",
					Text: "What is the time complexity of binary search?",
					Type: domain.FillInBlank,
					Options: []domain.Option{
						{ID: "q3-opt1", Text: "O(log n)", IsCorrect: true},
					},
					Points:      10,
					Explanation: "Binary search has a time complexity of O(log n) as it divides the search space in half with each iteration.",
				},
			},
		},
	}
}

// sampleSeeds pre-populates the leaderboard so a fresh install has something
// to beat.
func sampleSeeds() map[string][]domain.LeaderboardEntry {
	return map[string][]domain.LeaderboardEntry{
		"quiz-1": {
			{
				PlayerName:     "Sarah Chen",
				Score:          85,
				CorrectAnswers: 5,
				TotalQuestions: 6,
				CompletedAt:    time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC),
			},
			{
				PlayerName:     "Michael Rodriguez",
				Score:          75,
				CorrectAnswers: 4,
				TotalQuestions: 6,
				CompletedAt:    time.Date(2025, 3, 11, 9, 15, 0, 0, time.UTC),
			},
			{
				PlayerName:     "Emma Thompson",
				Score:          95,
				CorrectAnswers: 6,
				TotalQuestions: 6,
				CompletedAt:    time.Date(2025, 3, 9, 16, 45, 0, 0, time.UTC),
			},
		},
	}
}
