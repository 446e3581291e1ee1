package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"syscall"

	"github.com/primepath/primepath-backend/internal/config"
	"github.com/primepath/primepath-backend/internal/database"
	"github.com/primepath/primepath-backend/internal/logger"
	"github.com/primepath/primepath-backend/internal/repository"
	"github.com/primepath/primepath-backend/internal/service"
	"golang.org/x/term"
)

const minPasswordLength = 6

func main() {
	var (
		teacherEmail string
		studentCode  string
		dryRun       bool
	)
	flag.StringVar(&teacherEmail, "teacher", "", "Email of the teacher whose password is reset")
	flag.StringVar(&studentCode, "student", "", "Student code of the student whose password is reset")
	flag.BoolVar(&dryRun, "dry-run", false, "Look up the account without changing anything")
	flag.Parse()

	if (teacherEmail == "") == (studentCode == "") {
		fmt.Println("Usage: reset-password (--teacher <email> | --student <code>) [--dry-run]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	authService := service.NewAuthService(cfg, nil)
	teacherRepo := repository.NewTeacherRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)

	// Resolve the account first so a typo fails before the password prompt.
	var (
		label  string
		update func(hash string) error
	)
	if teacherEmail != "" {
		t, err := teacherRepo.GetByEmail(ctx, teacherEmail)
		if err != nil {
			exitLookup(err, "teacher", teacherEmail)
		}
		label = fmt.Sprintf("teacher %d %s (%s)", t.ID, t.Name, t.Email)
		update = func(hash string) error { return teacherRepo.UpdatePassword(ctx, t.ID, hash) }
	} else {
		s, err := studentRepo.GetByCode(ctx, studentCode)
		if err != nil {
			exitLookup(err, "student", studentCode)
		}
		label = fmt.Sprintf("student %d %s (%s)", s.ID, s.Name, s.StudentCode)
		update = func(hash string) error { return studentRepo.UpdatePassword(ctx, s.ID, hash) }
	}

	if dryRun {
		fmt.Printf("Dry run: would reset the password of %s\n", label)
		return
	}

	password, err := readNewPassword()
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	hash, err := authService.HashPassword(password)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}
	if err := update(hash); err != nil {
		log.Fatal().Err(err).Msg("Failed to update password")
	}

	log.Info().Str("account", label).Msg("Password reset")
	fmt.Printf("Success! Password of %s has been reset.\n", label)
}

func readNewPassword() (string, error) {
	fmt.Print("New Password: ")
	first, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if len(first) < minPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	fmt.Print("Repeat Password: ")
	second, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}

func exitLookup(err error, kind, key string) {
	if errors.Is(err, repository.ErrNotFound) {
		fmt.Printf("Error: no %s found for %q\n", kind, key)
	} else {
		fmt.Printf("Error: looking up %s %q: %v\n", kind, key, err)
	}
	os.Exit(1)
}
