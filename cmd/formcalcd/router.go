package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexuscrm/formcalc/engine"
	"github.com/nexuscrm/formcalc/value"
)

var errUnknownVariableType = errors.New(`type must be "number", "string", or "boolean"`)

func newRouter(eng *engine.Engine) *gin.Engine {
	router := gin.Default()
	router.Use(requestID())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/", requireAuth())
	api.POST("/variables", setVariableHandler(eng))
	api.POST("/execute", executeHandler(eng))
	api.GET("/results/:name", getResultHandler(eng))
	api.GET("/errors", getErrorsHandler(eng))
	api.POST("/clear", clearHandler(eng))

	return router
}

// variableRequest is the wire shape for POST /variables: exactly one
// of Number/String/Boolean is populated, selected by Type.
type variableRequest struct {
	Name    string  `json:"name" binding:"required"`
	Type    string  `json:"type" binding:"required"` // "number" | "string" | "boolean"
	Number  float64 `json:"number"`
	String  string  `json:"string"`
	Boolean bool    `json:"boolean"`
}

func (r variableRequest) toValue() (value.Value, error) {
	switch r.Type {
	case "number":
		return value.Num(r.Number), nil
	case "string":
		return value.Str(r.String), nil
	case "boolean":
		return value.Bool(r.Boolean), nil
	default:
		return value.Value{}, errUnknownVariableType
	}
}

func setVariableHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req variableRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		v, err := req.toValue()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		eng.SetVariable(req.Name, v)
		c.JSON(http.StatusOK, gin.H{"name": req.Name})
	}
}

type executeRequest struct {
	Formulas []engine.FormulaInput `json:"formulas" binding:"required"`
}

func executeHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req executeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := eng.Execute(req.Formulas); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		results := make(map[string]value.Value, len(req.Formulas))
		for _, f := range req.Formulas {
			if v, ok := eng.GetResult(f.Name); ok {
				results[f.Name] = v
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"results": results,
			"errors":  eng.GetErrors(),
		})
	}
}

func getResultHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		v, ok := eng.GetResult(name)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no result for formula " + name})
			return
		}
		c.JSON(http.StatusOK, gin.H{"name": name, "value": v})
	}
}

func getErrorsHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"errors": eng.GetErrors()})
	}
}

func clearHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		eng.Clear()
		c.JSON(http.StatusOK, gin.H{"status": "cleared"})
	}
}
