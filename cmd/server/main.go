package main

import (
	"fmt"
	"log"

	"signet/internal/config"
	"signet/internal/email/noop"
	"signet/internal/email/ses"
	"signet/internal/handler"
	"signet/internal/metrics"
	"signet/internal/pdf"
	"signet/internal/port"
	"signet/internal/repository/postgres"
	"signet/internal/router"
	"signet/internal/service"
	s3storage "signet/internal/storage/s3"
	"signet/internal/token"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	txManager := postgres.NewTxManager(db)
	docRepo := postgres.NewDocumentRepo(db)
	versionRepo := postgres.NewVersionRepo(db)
	signerRepo := postgres.NewSignerRepo(db)
	placeholderRepo := postgres.NewPlaceholderRepo(db)
	auditRepo := postgres.NewAuditLogRepo(db)

	// Initialize external collaborators
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}
	stamper := pdf.NewStamper()
	tokens := token.NewManager(cfg.Signing.LinkSecret, cfg.Signing.LinkIssuer)
	m := metrics.New()

	var notifier port.SignerNotifier
	if cfg.Email.Provider == "ses" {
		notifier, err = ses.NewSESNotifier(cfg.Email.Region, cfg.Email.FromAddress, cfg.Email.FromName)
		if err != nil {
			return fmt.Errorf("failed to initialize SES notifier: %w", err)
		}
	} else {
		notifier = noop.NewNoopNotifier()
	}

	// Initialize services
	versionSvc := service.NewVersionService(
		docRepo, versionRepo, auditRepo, s3Client, txManager, m,
		cfg.S3.Bucket, cfg.S3.PresignExpiry)
	placeholderSvc := service.NewPlaceholderService(docRepo, signerRepo, placeholderRepo, txManager)
	signingSvc := service.NewSigningService(
		docRepo, signerRepo, placeholderRepo, auditRepo, versionRepo,
		versionSvc, s3Client, stamper, notifier, tokens, txManager, m,
		cfg.S3.Bucket, cfg.Signing.SigningBaseURL, cfg.S3.PresignExpiry)
	documentSvc := service.NewDocumentService(
		docRepo, versionRepo, signerRepo, placeholderRepo, auditRepo,
		versionSvc, s3Client, notifier, tokens, txManager, m,
		cfg.S3.Bucket, cfg.Signing.SigningBaseURL,
		cfg.Signing.DefaultTimeToComplete, cfg.S3.MaxFileSizeMB)

	// Initialize handlers
	documentH := handler.NewDocumentHandler(documentSvc, versionSvc, signingSvc)
	placeholderH := handler.NewPlaceholderHandler(placeholderSvc)
	signingH := handler.NewSigningHandler(signingSvc, documentSvc)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(cfg, m, tokens, documentH, placeholderH, signingH, healthH)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
