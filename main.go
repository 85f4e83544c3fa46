// main.go

package main

import (
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := LoadConfig()

	db, err := ConnectDB(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to MongoDB: %v", err)
	}
	logrus.Infof("connected to MongoDB, database %q", cfg.DBName)

	app := NewApp(cfg, NewStore(db), NewStripeGateway(cfg.StripeSecretKey))
	r := setupRouter(app)

	logrus.Infof("listening on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		logrus.Fatalf("server stopped: %v", err)
	}
}
