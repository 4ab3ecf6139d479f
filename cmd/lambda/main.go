package main

import (
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/awmpietro/golang-rule-engine-case/internal/app"
	"github.com/awmpietro/golang-rule-engine-case/internal/config"
	"github.com/awmpietro/golang-rule-engine-case/internal/transport/lambdatransport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	svc, closeSvc, err := app.NewFromConfig(cfg, log.Default())
	if err != nil {
		log.Fatalf("build service: %v", err)
	}
	defer closeSvc()

	h := lambdatransport.NewHandler(svc)
	lambda.Start(h.Handle)
}
