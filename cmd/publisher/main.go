package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// positionMessage mirrors the raw provider payload: a device may omit any of
// the optional fields.
type positionMessage struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
	Altitude  *float64 `json:"altitude,omitempty"`
	Timestamp int64    `json:"timestamp"`
}

// Simulated device drifts around downtown San Francisco.
const (
	centerLat = 37.7749
	centerLon = -122.4194
)

func ptr(v float64) *float64 { return &v }

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <interval_seconds>\n", os.Args[0])
		os.Exit(1)
	}

	intervalSec, err := strconv.Atoi(os.Args[1])
	if err != nil || intervalSec <= 0 {
		fmt.Fprintf(os.Stderr, "error: interval must be a positive integer\n")
		os.Exit(1)
	}

	broker := "tcp://localhost:1883"
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		broker = v
	}
	topic := "/geotrack/device/position"
	if v := os.Getenv("MQTT_POSITION_TOPIC"); v != "" {
		topic = v
	}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("geotrack-mock-device")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("mqtt connect: %v", token.Error())
	}
	defer client.Disconnect(250)

	log.Printf("connected to %s, publishing to %s every %ds...", broker, topic, intervalSec)

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		var lat, lon float64
		// 30% of samples land near the center, the rest wander a few km out
		if rand.Float64() < 0.3 {
			lat = centerLat + (rand.Float64()-0.5)*0.0005 // ~50m drift
			lon = centerLon + (rand.Float64()-0.5)*0.0005
		} else {
			lat = centerLat + (rand.Float64()-0.5)*0.05
			lon = centerLon + (rand.Float64()-0.5)*0.05
		}

		msg := positionMessage{
			Latitude:  ptr(lat),
			Longitude: ptr(lon),
			Timestamp: time.Now().UnixMilli(),
		}
		// accuracy is present most of the time, like a real device
		if rand.Float64() < 0.9 {
			msg.Accuracy = ptr(5 + rand.Float64()*20)
		}

		payload, _ := json.Marshal(msg)

		token := client.Publish(topic, 1, false, payload)
		token.Wait()

		log.Printf("published: %s", payload)
	}
}
