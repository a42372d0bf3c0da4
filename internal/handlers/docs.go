package handlers

import (
	"encoding/json"
	"net/http"

	"air-quality-platform/internal/models"
)

func queryParam(name, description string, schema map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"in":          "query",
		"description": description,
		"required":    false,
		"schema":      schema,
	}
}

func filterParams() []map[string]interface{} {
	return []map[string]interface{}{
		queryParam("start_date", "Inclusive start date (YYYY-MM-DD), defaults to the earliest observation",
			map[string]interface{}{"type": "string", "format": "date"}),
		queryParam("end_date", "Inclusive end date (YYYY-MM-DD), defaults to the latest observation",
			map[string]interface{}{"type": "string", "format": "date"}),
		queryParam("station", "Station identifiers, repeated or comma separated. Omit for all stations; pass empty for none",
			map[string]interface{}{"type": "array", "items": map[string]string{"type": "string"}}),
	}
}

func columnParamDoc() map[string]interface{} {
	return queryParam("column", "Measurement column (default: PM2.5)",
		map[string]interface{}{"type": "string", "enum": models.MeasurementColumns, "default": models.ColumnPM25})
}

func nullableNumber() map[string]interface{} {
	return map[string]interface{}{"type": "number", "nullable": true}
}

func object(properties map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"type": "object", "properties": properties}
}

func arrayOf(items map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"type": "array", "items": items}
}

func getOperation(summary, description string, params []map[string]interface{}, schema map[string]interface{}) map[string]interface{} {
	op := map[string]interface{}{
		"summary":     summary,
		"description": description,
		"responses": map[string]interface{}{
			"200": map[string]interface{}{
				"description": "Successful response",
				"content": map[string]interface{}{
					"application/json": map[string]interface{}{"schema": schema},
				},
			},
			"400": map[string]interface{}{"description": "Invalid query parameter"},
		},
	}
	if len(params) > 0 {
		op["parameters"] = params
	}
	return map[string]interface{}{"get": op}
}

func pollutantAverage() map[string]interface{} {
	return object(map[string]interface{}{
		"period": map[string]string{"type": "string"},
		"year":   map[string]string{"type": "integer"},
		"month":  map[string]string{"type": "integer"},
		"PM2.5":  nullableNumber(),
		"PM10":   nullableNumber(),
	})
}

// OpenAPISpec returns the OpenAPI 3.0 specification for the Air Quality Dashboard API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	observation := object(map[string]interface{}{
		"station": map[string]string{"type": "string"},
		"year":    map[string]string{"type": "integer"},
		"month":   map[string]string{"type": "integer"},
		"day":     map[string]string{"type": "integer"},
		"hour":    map[string]string{"type": "integer"},
		"date":    map[string]string{"type": "string", "format": "date-time"},
		"wd":      map[string]string{"type": "string"},
	})
	properties := observation["properties"].(map[string]interface{})
	for _, column := range models.MeasurementColumns {
		properties[column] = nullableNumber()
	}

	pagination := append(filterParams(),
		queryParam("page", "Page number (default: 1)", map[string]interface{}{"type": "integer", "default": 1}),
		queryParam("limit", "Records per page (default: 100, max: 1000)", map[string]interface{}{"type": "integer", "default": defaultLimit}),
	)

	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Air Quality Dashboard API",
			"description": "Exploratory statistics and RFM station ranking over hourly Beijing air quality observations",
			"version":     "1.0.0",
			"contact": map[string]string{
				"name": "Air Quality Platform Team",
			},
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/stations": getOperation("List stations",
				"Station identifiers in dataset order", nil,
				object(map[string]interface{}{"stations": arrayOf(map[string]interface{}{"type": "string"})})),
			"/api/bounds": getOperation("Date bounds",
				"Earliest and latest observation dates", nil,
				object(map[string]interface{}{
					"min_date": map[string]string{"type": "string", "format": "date"},
					"max_date": map[string]string{"type": "string", "format": "date"},
				})),
			"/api/observations": getOperation("Filtered observations",
				"Observations inside the date range and station selection, paginated", pagination,
				object(map[string]interface{}{
					"data":        arrayOf(observation),
					"total":       map[string]string{"type": "integer"},
					"page":        map[string]string{"type": "integer"},
					"limit":       map[string]string{"type": "integer"},
					"total_pages": map[string]string{"type": "integer"},
				})),
			"/api/summary": getOperation("Describe table",
				"Count, mean, std, min, quartiles and max per numeric column of the filtered set", filterParams(),
				arrayOf(object(map[string]interface{}{
					"column": map[string]string{"type": "string"},
					"count":  map[string]string{"type": "integer"},
					"mean":   nullableNumber(),
					"std":    nullableNumber(),
					"min":    nullableNumber(),
					"25%":    nullableNumber(),
					"50%":    nullableNumber(),
					"75%":    nullableNumber(),
					"max":    nullableNumber(),
				}))),
			"/api/trend/monthly": getOperation("Monthly pollutant trend",
				"Monthly PM2.5 and PM10 averages across all selected stations",
				append(filterParams(), queryParam("scope", "filtered (default) or all for the full dataset",
					map[string]interface{}{"type": "string", "enum": []string{"filtered", "all"}})),
				arrayOf(pollutantAverage())),
			"/api/trend/stations": getOperation("Per-station trends",
				"Yearly and monthly PM2.5 and PM10 averages per station over the full dataset", nil,
				object(map[string]interface{}{
					"yearly":  arrayOf(pollutantAverage()),
					"monthly": arrayOf(pollutantAverage()),
				})),
			"/api/histogram": getOperation("Histogram",
				"Equal-width histogram of a measurement column over the filtered set",
				append(filterParams(), columnParamDoc(),
					queryParam("bins", "Bin count (default: Sturges' rule)", map[string]interface{}{"type": "integer", "minimum": 1, "maximum": maxBins})),
				object(map[string]interface{}{
					"column": map[string]string{"type": "string"},
					"count":  map[string]string{"type": "integer"},
					"bins": arrayOf(object(map[string]interface{}{
						"lower": map[string]string{"type": "number"},
						"upper": map[string]string{"type": "number"},
						"count": map[string]string{"type": "integer"},
					})),
				})),
			"/api/correlation": getOperation("Correlation matrix",
				"Pearson correlation of the measurement columns; null where undefined", filterParams(),
				object(map[string]interface{}{
					"columns": arrayOf(map[string]interface{}{"type": "string"}),
					"values":  arrayOf(arrayOf(nullableNumber())),
				})),
			"/api/boxplots": getOperation("Station boxplots",
				"Per-station quartiles, 1.5 IQR whiskers and outliers over the full dataset",
				[]map[string]interface{}{columnParamDoc()},
				arrayOf(object(map[string]interface{}{
					"station":      map[string]string{"type": "string"},
					"column":       map[string]string{"type": "string"},
					"count":        map[string]string{"type": "integer"},
					"min":          nullableNumber(),
					"q1":           nullableNumber(),
					"median":       nullableNumber(),
					"q3":           nullableNumber(),
					"max":          nullableNumber(),
					"iqr":          nullableNumber(),
					"lower_fence":  nullableNumber(),
					"upper_fence":  nullableNumber(),
					"whisker_low":  nullableNumber(),
					"whisker_high": nullableNumber(),
					"outliers":     arrayOf(map[string]interface{}{"type": "number"}),
				}))),
			"/api/ranking": getOperation("RFM station ranking",
				"Stations ordered by Recency + Frequency + Monetary, descending",
				[]map[string]interface{}{queryParam("threshold", "PM2.5 level counted by Frequency (default: 35)",
					map[string]interface{}{"type": "number", "minimum": 0})},
				object(map[string]interface{}{
					"threshold": map[string]string{"type": "number"},
					"stations": arrayOf(object(map[string]interface{}{
						"station":   map[string]string{"type": "string"},
						"recency":   map[string]string{"type": "integer"},
						"frequency": map[string]string{"type": "integer"},
						"monetary":  nullableNumber(),
						"rfm_score": nullableNumber(),
						"max_date":  map[string]string{"type": "string", "format": "date"},
					})),
				})),
			"/health": getOperation("Health check",
				"Dataset size and, for the postgres source, database reachability", nil,
				object(map[string]interface{}{
					"status":   map[string]string{"type": "string"},
					"source":   map[string]string{"type": "string"},
					"records":  map[string]string{"type": "integer"},
					"stations": map[string]string{"type": "integer"},
				})),
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{
									"schema": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
