package repository

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("github.com/punktual/backend/internal/repository")
