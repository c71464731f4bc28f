package main

import "os"

type Config struct {
	ServerPort    string
	MongoURI      string
	MongoDBName   string
	UploadDir     string
	AdminEmail    string
	AdminPassword string
	SMTPHost      string
	SMTPPort      string
	SMTPFrom      string
	SMTPPassword  string
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func loadConfig() Config {
	return Config{
		ServerPort:    getenv("SERVER_PORT", "5000"),
		MongoURI:      getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:   getenv("MONGO_DB_NAME", "task_management"),
		UploadDir:     getenv("UPLOAD_DIR", "uploads"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		SMTPHost:      getenv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:      getenv("SMTP_PORT", "587"),
		SMTPFrom:      os.Getenv("SMTP_FROM"),
		SMTPPassword:  os.Getenv("EMAIL_PASSWORD"),
	}
}
