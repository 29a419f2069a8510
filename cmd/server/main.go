package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/geotrack/config"
	"github.com/nandanugg/geotrack/module/tracking"
)

func main() {
	cfg := config.Load()

	db, err := config.NewPostgres(cfg)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer func() { _ = db.Close() }()

	amqpConn, err := config.NewRabbitMQ(cfg)
	if err != nil {
		log.Fatalf("rabbitmq: %v", err)
	}
	defer func() { _ = amqpConn.Close() }()

	mqttClient, err := config.NewMQTT(cfg)
	if err != nil {
		log.Fatalf("mqtt: %v", err)
	}
	defer mqttClient.Disconnect(250)

	trackingModule, err := tracking.Build(db, amqpConn, mqttClient, cfg.MQTTPositionTopic)
	if err != nil {
		log.Fatalf("tracking module: %v", err)
	}

	if err := trackingModule.LoadGeofences(context.Background()); err != nil {
		log.Fatalf("load geofences: %v", err)
	}

	r := gin.Default()

	health := config.NewHealthChecker(db, amqpConn, mqttClient)
	health.Register(r)

	trackingModule.RegisterRoutes(&r.RouterGroup)

	log.Printf("listening on :%s", cfg.HTTPPort)
	if err := r.Run(":" + cfg.HTTPPort); err != nil {
		log.Fatalf("server: %v", err)
	}
}
