package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/hussainzaidi99/OSMAPI/internal/core/usecases"
	"github.com/hussainzaidi99/OSMAPI/internal/pkg/geospatial"
)

// buildSchema creates the GraphQL schema wired to the measurement service.
// Field names follow the JSON tags of MeasureResponse, which the default
// resolver reads.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	pointType := graphql.NewObject(graphql.ObjectConfig{
		Name:        "PixelPoint",
		Description: "Image pixel coordinate, origin top-left",
		Fields: graphql.Fields{
			"x": &graphql.Field{Type: graphql.Float},
			"y": &graphql.Field{Type: graphql.Float},
		},
	})

	measurementType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Measurement",
		Fields: graphql.Fields{
			"length_m":        &graphql.Field{Type: graphql.Float},
			"width_m":         &graphql.Field{Type: graphql.Float},
			"length_ft":       &graphql.Field{Type: graphql.Float},
			"width_ft":        &graphql.Field{Type: graphql.Float},
			"angle_deg":       &graphql.Field{Type: graphql.Float},
			"source":          &graphql.Field{Type: graphql.String},
			"model":           &graphql.Field{Type: graphql.String},
			"zoom":            &graphql.Field{Type: graphql.Int},
			"fallback":        &graphql.Field{Type: graphql.Boolean},
			"fallback_reason": &graphql.Field{Type: graphql.String},
			"rect":            &graphql.Field{Type: graphql.NewList(pointType)},
			"fallback_box":    &graphql.Field{Type: graphql.NewList(pointType)},
			"image_base64":    &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"measure": &graphql.Field{
				Type:        measurementType,
				Description: "Measure the building footprint at a coordinate",
				Args: graphql.FieldConfigArgument{
					"lat":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"model": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					req := usecases.MeasureRequest{Point: geospatial.GeoPoint{
						Lat: p.Args["lat"].(float64),
						Lon: p.Args["lng"].(float64),
					}}
					if m, ok := p.Args["model"].(string); ok && m != "" {
						model, err := geospatial.ParseDistanceModel(m)
						if err != nil {
							return nil, err
						}
						req.Model = &model
					}

					res, err := deps.Measure.Measure(p.Context, req)
					if err != nil {
						return nil, err
					}
					return NewMeasureResponse(res), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Query == "" {
			return errBadRequest(c, "query is required")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.JSON(result)
	}
}
