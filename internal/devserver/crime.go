package devserver

import (
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"

	"phillysafe/pkg/models"
)

var crimeTypes = []string{
	"Theft", "Assault", "Burglary", "Robbery", "Vandalism",
	"Drug Offense", "DUI", "Fraud", "Domestic Violence", "Public Disorder",
}

// approximate city bounds
const (
	north = 40.1379
	south = 39.8670
	east  = -74.9558
	west  = -75.2803
)

const simulatedDateLayout = "2006-01-02T15:04:05.000000"

// Generator produces simulated-shape incidents spread over the city and
// the last 30 days. Output is fully determined by Seed and Now.
type Generator struct {
	Count int
	Seed  uint64
	Now   func() time.Time
}

func NewGenerator(count int, seed uint64) *Generator {
	return &Generator{Count: count, Seed: seed, Now: time.Now}
}

func (g *Generator) Generate() []models.SimulatedIncident {
	r := rand.New(rand.NewPCG(g.Seed, g.Seed^0x9e3779b97f4a7c15))
	base := g.Now().Add(-30 * 24 * time.Hour)

	out := make([]models.SimulatedIncident, 0, g.Count)
	for i := 0; i < g.Count; i++ {
		crimeType := crimeTypes[r.IntN(len(crimeTypes))]
		date := base.Add(time.Duration(r.IntN(31)) * 24 * time.Hour)
		out = append(out, models.SimulatedIncident{
			Latitude:    models.Number(south + r.Float64()*(north-south)),
			Longitude:   models.Number(west + r.Float64()*(east-west)),
			CrimeType:   crimeType,
			Severity:    models.Number(1 + r.IntN(5)),
			Date:        date.Format(simulatedDateLayout),
			Description: crimeType + " incident reported",
		})
	}
	return out
}

func (s *Server) listCrime(c *gin.Context) {
	if s.FixturePath != "" {
		b, err := os.ReadFile(s.FixturePath)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "cannot read fixture: " + err.Error()})
			return
		}
		// validate so a bad file fails loudly instead of confusing clients
		var tmp []models.RawIncident
		if err := json.Unmarshal(b, &tmp); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "fixture is not an incident list: " + err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/json", b)
		return
	}
	c.JSON(http.StatusOK, s.Generator.Generate())
}

func (s *Server) filteredCrime(c *gin.Context) {
	minSev, err := intQuery(c, "min_severity", 1)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	maxSev, err := intQuery(c, "max_severity", 5)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	daysBack, err := intQuery(c, "days_back", 30)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	crimeType := c.Query("crime_type")
	now := s.Generator.Now()
	cutoff := now.Add(-time.Duration(daysBack) * 24 * time.Hour)

	out := make([]models.SimulatedIncident, 0)
	for _, inc := range s.Generator.Generate() {
		if crimeType != "" && !strings.EqualFold(inc.CrimeType, crimeType) {
			continue
		}
		sev := inc.Severity.Int()
		if sev < minSev || sev > maxSev {
			continue
		}
		if at, err := time.ParseInLocation(simulatedDateLayout, inc.Date, now.Location()); err == nil && at.Before(cutoff) {
			continue
		}
		out = append(out, inc)
	}
	c.JSON(http.StatusOK, out)
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}
