package metrics

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	coremetrics "github.com/greenmove/evcharge/core/metrics"
	"github.com/greenmove/evcharge/infra/logger"
)

// InfluxSink writes solve records to InfluxDB. Write failures are logged
// and never fail the optimization cycle.
type InfluxSink struct {
	client influxdb2.Client
	write  api.WriteAPIBlocking
	log    logger.Logger
}

// NewInfluxSink connects to InfluxDB using the configured URL and token.
func NewInfluxSink(cfg coremetrics.Config) *InfluxSink {
	client := influxdb2.NewClient(cfg.InfluxURL, cfg.InfluxToken)
	return &InfluxSink{
		client: client,
		write:  client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
		log:    logger.New("influx_sink"),
	}
}

func (s *InfluxSink) RecordSolve(rec coremetrics.SolveRecord) error {
	p := influxdb2.NewPoint("optimizer_solve",
		map[string]string{"outcome": rec.Outcome},
		map[string]interface{}{
			"epoch":      int64(rec.Epoch),
			"assigned":   rec.Assigned,
			"unassigned": rec.Unassigned,
			"conflicts":  rec.Conflicts,
			"total_cost": rec.TotalCost,
			"duration_s": rec.Duration.Seconds(),
		},
		time.Now())
	if err := s.write.WritePoint(context.Background(), p); err != nil {
		s.log.Errorf("influx write: %v", err)
	}
	return nil
}

func (s *InfluxSink) RecordStationLoad(loads []coremetrics.StationLoad) error {
	for _, l := range loads {
		p := influxdb2.NewPoint("station_load",
			map[string]string{"station_id": l.StationID},
			map[string]interface{}{"ratio": l.Ratio},
			time.Now())
		if err := s.write.WritePoint(context.Background(), p); err != nil {
			s.log.Errorf("influx write: %v", err)
			return nil
		}
	}
	return nil
}

func (s *InfluxSink) RecordFleetSize(size int) error {
	p := influxdb2.NewPoint("fleet_size",
		nil,
		map[string]interface{}{"vehicles": size},
		time.Now())
	if err := s.write.WritePoint(context.Background(), p); err != nil {
		s.log.Errorf("influx write: %v", err)
	}
	return nil
}

// Close shuts the underlying client down.
func (s *InfluxSink) Close() {
	s.client.Close()
}
