package metric

import (
	"context"
	"log/slog"
	"meetupd/src-server/queue"
	"meetupd/src-server/utils"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func databaseEmptyRead(as *utils.AppState, tickerInterval *time.Duration) {
	databaseEmptyRead := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "meetupd_database_empty_read_microsec",
		Help: "The latency of an empty database read in microseconds",
	})
	good := true
	if err := prometheus.Register(databaseEmptyRead); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register meetupd_database_empty_read_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("meetupd_database_empty_read_microsec metric registered")
		databaseEmptyRead.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		ticker := time.NewTicker(*tickerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(databaseEmptyRead) {
				case true:
					slog.Debug("meetupd_database_empty_read_microsec metric unregistered")
				case false:
					slog.Warn("meetupd_database_empty_read_microsec metric not registered")
				}
				return
			case <-ticker.C:
				latency, err := database(as)
				if err != nil {
					slog.Error("can't get database latency", "error", err)
					continue
				}
				databaseEmptyRead.Set(float64(latency.Microseconds()))
			}
		}
	}()
}

func databaseRead(as *utils.AppState, clearTickerInterval *time.Duration) {
	databaseRead := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "meetupd_database_read_microsec",
		Help: "The latency of a database read in microseconds",
	})
	good := true
	if err := prometheus.Register(databaseRead); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register meetupd_database_read_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("meetupd_database_read_microsec metric registered")
		databaseRead.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		clearTicker := time.NewTicker(*clearTickerInterval)
		defer clearTicker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(databaseRead) {
				case true:
					slog.Debug("meetupd_database_read_microsec metric unregistered")
				case false:
					slog.Warn("meetupd_database_read_microsec metric not registered")
				}
				return
			case latency := <-as.MetricChans.DatabaseRead:
				databaseRead.Set(latency)
				clearTicker.Reset(*clearTickerInterval)
			case <-clearTicker.C:
				databaseRead.Set(0)
			}
		}
	}()
}

func databaseWrite(as *utils.AppState, clearTickerInterval *time.Duration) {
	databaseWrite := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "meetupd_database_write_microsec",
		Help: "The latency of a database write in microseconds",
	})
	good := true
	if err := prometheus.Register(databaseWrite); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register meetupd_database_write_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("meetupd_database_write_microsec metric registered")
		databaseWrite.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		clearTicker := time.NewTicker(*clearTickerInterval)
		defer clearTicker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(databaseWrite) {
				case true:
					slog.Debug("meetupd_database_write_microsec metric unregistered")
				case false:
					slog.Warn("meetupd_database_write_microsec metric not registered")
				}
				return
			case latency := <-as.MetricChans.DatabaseWrite:
				databaseWrite.Set(latency)
				clearTicker.Reset(*clearTickerInterval)
			case <-clearTicker.C:
				databaseWrite.Set(0)
			}
		}
	}()
}

func mailSend(as *utils.AppState, clearTickerInterval *time.Duration) {
	mailSend := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "meetupd_mail_send_microsec",
		Help: "The latency of a subscription mail send in microseconds",
	})
	good := true
	if err := prometheus.Register(mailSend); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register meetupd_mail_send_microsec metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("meetupd_mail_send_microsec metric registered")
		mailSend.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		clearTicker := time.NewTicker(*clearTickerInterval)
		defer clearTicker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(mailSend) {
				case true:
					slog.Debug("meetupd_mail_send_microsec metric unregistered")
				case false:
					slog.Warn("meetupd_mail_send_microsec metric not registered")
				}
				return
			case latency := <-as.MetricChans.MailSend:
				mailSend.Set(latency)
				clearTicker.Reset(*clearTickerInterval)
			case <-clearTicker.C:
				mailSend.Set(0)
			}
		}
	}()
}

func mailQueueDepth(as *utils.AppState, tickerInterval *time.Duration) {
	mailQueueDepth := promauto.NewGauge(prometheus.GaugeOpts{
		Name: "meetupd_mail_queue_depth",
		Help: "The number of subscription mail jobs waiting in the queue",
	})
	good := true
	if err := prometheus.Register(mailQueueDepth); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			slog.Error("can't register meetupd_mail_queue_depth metric", "error", err)
			good = false
		}
	}
	if good {
		slog.Debug("meetupd_mail_queue_depth metric registered")
		mailQueueDepth.Set(0)
	}
	go func() {
		gracefulShutdownCh := as.CreateGracefulShutdownChan()
		ticker := time.NewTicker(*tickerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-*gracefulShutdownCh:
				switch prometheus.Unregister(mailQueueDepth) {
				case true:
					slog.Debug("meetupd_mail_queue_depth metric unregistered")
				case false:
					slog.Warn("meetupd_mail_queue_depth metric not registered")
				}
				return
			case <-ticker.C:
				depth, err := queue.Depth(context.Background(), as.Redis)
				if err != nil {
					slog.Error("can't get mail queue depth", "error", err)
					continue
				}
				mailQueueDepth.Set(float64(depth))
			}
		}
	}()
}

func Init(as *utils.AppState) {
	tickerInterval := as.Config.GetMetricCollectionInterval()
	clearTickerInterval := as.Config.GetMetricCollectionInterval() * 2

	databaseEmptyRead(as, &tickerInterval)
	databaseRead(as, &clearTickerInterval)
	databaseWrite(as, &clearTickerInterval)
	mailSend(as, &clearTickerInterval)
	mailQueueDepth(as, &tickerInterval)
}
