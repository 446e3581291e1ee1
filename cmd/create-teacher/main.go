package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin/binding"
	"github.com/primepath/primepath-backend/internal/config"
	"github.com/primepath/primepath-backend/internal/database"
	"github.com/primepath/primepath-backend/internal/logger"
	"github.com/primepath/primepath-backend/internal/model"
	"github.com/primepath/primepath-backend/internal/repository"
	"github.com/primepath/primepath-backend/internal/service"
	"github.com/primepath/primepath-backend/internal/validator"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	validator.Setup()

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Initialize Service ────────────────────────────────────────────
	// Redis is only needed for login sessions, which this tool never issues.
	authService := service.NewAuthService(cfg, nil)
	teacherService := service.NewTeacherService(
		repository.NewTeacherRepository(pool),
		repository.NewRoleRepository(pool),
		authService,
		log,
	)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New Teacher ===")

	req := model.CreateTeacherRequest{
		Name:  prompt(reader, "Enter Name: "),
		Email: prompt(reader, "Enter Email: "),
		Phone: prompt(reader, "Enter Phone (optional): "),
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // Newline after password input
	if err != nil {
		fmt.Println("Error reading password")
		return
	}
	req.Password = string(bytePassword)

	req.RoleID = service.AdministratorRoleID
	if raw := prompt(reader, fmt.Sprintf("Enter Role ID (default %d): ", service.AdministratorRoleID)); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			fmt.Println("Error: Role ID must be a number")
			return
		}
		req.RoleID = id
	}
	req.IsHeadTeacher = strings.EqualFold(prompt(reader, "Head teacher? [y/N]: "), "y")

	if err := binding.Validator.ValidateStruct(&req); err != nil {
		fmt.Println("Error:")
		for field, msg := range validator.TranslateErrors(err) {
			fmt.Printf("  %s: %s\n", field, msg)
		}
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	teacher, err := teacherService.Create(ctx, req)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create teacher")
	}

	fmt.Printf("\nSuccess! Teacher '%s' (%s) created with ID: %d, role: %s\n",
		teacher.Name, teacher.Email, teacher.ID, teacher.RoleName)
}

func prompt(r *bufio.Reader, label string) string {
	fmt.Print(label)
	s, _ := r.ReadString('\n')
	return strings.TrimSpace(s)
}
