package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/mosesotieno/clinical-study/internal/config"
	"github.com/mosesotieno/clinical-study/internal/domain"
	"github.com/mosesotieno/clinical-study/internal/domain/participant"
	"github.com/mosesotieno/clinical-study/pkg/database"
	"github.com/mosesotieno/clinical-study/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var firstNames = []string{
	"James", "Mary", "John", "Patricia", "Robert", "Jennifer", "Michael",
	"Linda", "David", "Elizabeth", "William", "Barbara", "Richard", "Susan",
	"Joseph", "Jessica", "Thomas", "Sarah", "Grace", "Daniel",
}

var lastNames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller",
	"Davis", "Rodriguez", "Martinez", "Wilson", "Anderson", "Taylor",
	"Thomas", "Moore", "Jackson", "Martin", "Lee", "Thompson", "White",
}

var genders = []participant.Gender{
	participant.GenderMale,
	participant.GenderFemale,
	participant.GenderOther,
}

func main() {
	count := flag.Int("count", 20, "number of participants to create")
	clear := flag.Bool("clear", false, "delete existing participants and visits first")
	ageMin := flag.Int("age-min", 18, "minimum participant age")
	ageMax := flag.Int("age-max", 80, "maximum participant age")
	adminEmail := flag.String("admin-email", "", "create an admin user with this email")
	adminPassword := flag.String("admin-password", "", "password for the admin user")
	flag.Parse()

	if *ageMin < 0 || *ageMax < *ageMin {
		fmt.Fprintln(os.Stderr, "invalid age range")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatal("connecting to database", zap.Error(err))
	}
	if err := database.Migrate(db, log); err != nil {
		log.Fatal("running migrations", zap.Error(err))
	}

	ctx := context.Background()

	if *clear {
		if err := clearStudyData(ctx, db); err != nil {
			log.Fatal("clearing study data", zap.Error(err))
		}
		log.Info("cleared existing participants and visits")
	}

	if *adminEmail != "" {
		if *adminPassword == "" {
			log.Fatal("admin-password is required with admin-email")
		}
		if err := seedAdmin(ctx, db, *adminEmail, *adminPassword); err != nil {
			log.Fatal("creating admin user", zap.Error(err))
		}
		log.Info("admin user ready", zap.String("email", *adminEmail))
	}

	created, err := seedParticipants(ctx, db, *count, *ageMin, *ageMax)
	if err != nil {
		log.Fatal("seeding participants", zap.Error(err))
	}

	log.Info("seed complete", zap.Int("participants_created", created))
}

func clearStudyData(ctx context.Context, db *gorm.DB) error {
	tables := []string{
		"clinical.vitals",
		"clinical.doctor_assessments",
		"clinical.psychiatrist_assessments",
		"clinical.lab_requests",
		"clinical.visits",
		"clinical.participants",
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range tables {
			if err := tx.Exec("DELETE FROM " + t).Error; err != nil {
				return fmt.Errorf("clearing %s: %w", t, err)
			}
		}
		return nil
	})
}

func seedAdmin(ctx context.Context, db *gorm.DB, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	u := &domain.User{
		Email:             email,
		PasswordHash:      string(hash),
		FirstName:         "Study",
		LastName:          "Admin",
		Role:              domain.RoleAdmin,
		IsActive:          true,
		PasswordChangedAt: time.Now(),
	}

	return db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(u).Error
}

func seedParticipants(ctx context.Context, db *gorm.DB, count, ageMin, ageMax int) (int, error) {
	var maxCode int64
	err := db.WithContext(ctx).
		Raw(`SELECT COALESCE(MAX(SUBSTRING(code FROM 3)::int), 0) FROM clinical.participants WHERE code ~ '^P-[0-9]+$'`).
		Scan(&maxCode).Error
	if err != nil {
		return 0, fmt.Errorf("finding highest participant code: %w", err)
	}

	created := 0
	for i := 0; i < count; i++ {
		age := ageMin + rand.Intn(ageMax-ageMin+1)
		dob := time.Now().AddDate(-age, 0, -rand.Intn(365))

		p := &participant.Participant{
			Code:        fmt.Sprintf("P-%04d", maxCode+int64(i)+1),
			FirstName:   firstNames[rand.Intn(len(firstNames))],
			LastName:    lastNames[rand.Intn(len(lastNames))],
			DateOfBirth: dob,
			Gender:      genders[rand.Intn(len(genders))],
			ContactInfo: fmt.Sprintf("+1-555-%03d-%04d", rand.Intn(1000), rand.Intn(10000)),
		}

		if err := db.WithContext(ctx).Create(p).Error; err != nil {
			return created, fmt.Errorf("creating participant %s: %w", p.Code, err)
		}
		created++
	}

	return created, nil
}
