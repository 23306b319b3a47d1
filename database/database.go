package database

import (
	"fmt"

	"rangeapi/config"
	"rangeapi/models"
	"rangeapi/utils"
	"rangeapi/utils/permissions"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

var AdminRole = "Owner"
var DefaultPassword = "admin"

// InitDB initializes the database connection, migrates the models and populates the database with default values if needed
func InitDB() {
	dsn := fmt.Sprintf("host=%s port=%s user=%s dbname=%s password=%s sslmode=disable TimeZone=UTC",
		config.PostgresHost, config.PostgresPort, config.PostgresUser, config.PostgresDB, config.PostgresPassword)

	var err error
	// TranslateError maps driver unique-violation errors to
	// gorm.ErrDuplicatedKey, which the stores branch on.
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		logrus.Fatal("failed to connect database: ", err)
	}

	err = DB.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.CompetitionGroup{},
		&models.Membership{},
		&models.AccessCode{},
		&models.AccessCodeRedemption{},
		&models.GroupChallenge{},
		&models.ChallengeInstance{},
		&models.CompletionRecord{},
		&models.QuestionCompletion{},
		&models.PointsBalance{},
		&models.AuditEvent{},
		&models.PasswordReset{},
	)
	if err != nil {
		logrus.Fatal("failed to migrate database: ", err)
	}

	Populate()
}

// Populate populates the database with default values if needed
func Populate() {
	var countRole, countUser int64
	var adminRole models.Role

	// Check if there is no role and no user in the database
	DB.Model(&models.Role{}).Count(&countRole)
	DB.Model(&models.User{}).Count(&countUser)
	if countRole == 0 && countUser == 0 {
		// Create default role admin
		adminRole = models.Role{Name: AdminRole, Permissions: permissions.GetAdminPermissions()}
		DB.Create(&adminRole)
		logrus.Info("Default role admin created")

		// Create default user admin with a default hashed password either from the .env file or the DefaultPassword constant
		password := DefaultPassword
		if config.DefaultPassword != "" {
			password = config.DefaultPassword
		}

		password, err := utils.HashPassword(password)
		if err != nil {
			panic(err)
		}

		user := models.User{
			Email:         "admin@admin.com",
			Firstname:     "Admin",
			Lastname:      "Admin",
			Password:      password,
			LastConnected: nil,
			Roles:         []*models.Role{&adminRole},
		}
		DB.Create(&user)
		logrus.Info("Default user admin created")
	}
}
