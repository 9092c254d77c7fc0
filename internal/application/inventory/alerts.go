package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// AlertKind tipo de alerta de existencias.
type AlertKind string

const (
	AlertLowStock  AlertKind = "LOW_STOCK"
	AlertRestocked AlertKind = "RESTOCKED"
	AlertOverstock AlertKind = "OVERSTOCK"
)

// Alert evento de umbral sobre un producto.
type Alert struct {
	Kind        AlertKind `json:"kind"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	Previous    int       `json:"previous"`
	MinStock    int       `json:"min_stock"`
	MaxStock    int       `json:"max_stock"`
	Context     string    `json:"context"`
	At          time.Time `json:"at"`
}

// Notification mensaje listo para un canal: send(to, subject, body).
type Notification struct {
	To      []string
	Subject string
	Body    string
	Alert   Alert
}

// EvaluateAlerts compara la existencia resultante con los umbrales del producto.
// RESTOCKED es candidata cuando la existencia cruza hacia arriba el mínimo.
func EvaluateAlerts(ch StockChange) []AlertKind {
	p := ch.Product
	var out []AlertKind
	switch {
	case p.IsLowStock():
		out = append(out, AlertLowStock)
	case ch.Previous <= p.MinStock:
		out = append(out, AlertRestocked)
	}
	if p.IsOverstock() {
		out = append(out, AlertOverstock)
	}
	return out
}

// AlertConfig destinatarios y tiempo máximo de entrega por alerta.
// QueueSize acota los cambios pendientes de evaluar; lleno, el cambio se descarta y se registra.
type AlertConfig struct {
	Recipients []string
	Timeout    time.Duration
	QueueSize  int
}

type alertJob struct {
	ctx    context.Context
	change StockChange
	origin string
}

// AlertNotifier notificador de alertas de stock. Corre después del commit: encola el cambio
// y un worker propio lo evalúa en orden de llegada, consulta el limitador y entrega en
// segundo plano a todos los canales. Las fallas solo se registran en log.
type AlertNotifier struct {
	cfg      AlertConfig
	throttle AlertThrottle
	channels []NotificationChannel
	log      zerolog.Logger
	queue    chan alertJob
	wg       sync.WaitGroup
}

var _ StockNotifier = (*AlertNotifier)(nil)

// NewAlertNotifier construye el notificador y arranca su worker. Sin throttle se usa uno
// en memoria de una hora.
func NewAlertNotifier(cfg AlertConfig, throttle AlertThrottle, log zerolog.Logger, channels ...NotificationChannel) *AlertNotifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if throttle == nil {
		throttle = NewMemoryThrottle(time.Hour)
	}
	n := &AlertNotifier{
		cfg:      cfg,
		throttle: throttle,
		channels: channels,
		log:      log,
		queue:    make(chan alertJob, cfg.QueueSize),
	}
	go n.loop()
	return n
}

func alertKey(kind AlertKind, productID string) string {
	return "stock-alert:" + string(kind) + ":" + productID
}

// CheckAndNotify encola el cambio y retorna de inmediato; nunca espera al limitador ni a
// los canales.
func (n *AlertNotifier) CheckAndNotify(ctx context.Context, change StockChange, origin string) {
	n.wg.Add(1)
	select {
	case n.queue <- alertJob{ctx: context.WithoutCancel(ctx), change: change, origin: origin}:
	default:
		n.wg.Done()
		n.log.Warn().Str("product_id", change.Product.ID).Str("context", origin).Msg("cola de alertas llena, cambio descartado")
	}
}

func (n *AlertNotifier) loop() {
	for job := range n.queue {
		n.evaluate(job)
		n.wg.Done()
	}
}

// evaluate aplica las reglas de umbral. LOW_STOCK y OVERSTOCK pasan por el limitador,
// salvo que la existencia siga bajando estando ya bajo el mínimo: eso rearma LOW_STOCK.
// RESTOCKED solo se envía si había una alerta de stock bajo vigente para el producto.
func (n *AlertNotifier) evaluate(job alertJob) {
	change, p := job.change, job.change.Product
	defer func() {
		if r := recover(); r != nil {
			n.log.Error().Interface("panic", r).Str("product_id", p.ID).Msg("alerta de stock")
		}
	}()

	tctx, cancel := context.WithTimeout(job.ctx, n.cfg.Timeout)
	defer cancel()

	for _, kind := range EvaluateAlerts(change) {
		switch {
		case kind == AlertRestocked:
			had, err := n.throttle.Reset(tctx, alertKey(AlertLowStock, p.ID))
			if err != nil {
				n.log.Warn().Err(err).Str("product_id", p.ID).Msg("limitador de alertas no disponible")
				continue
			}
			if !had {
				continue
			}
		case kind == AlertLowStock && change.Previous <= p.MinStock && p.Quantity < change.Previous:
			// sigue bajando: se envía aunque la clave siga vigente
			if _, err := n.throttle.Allow(tctx, alertKey(kind, p.ID)); err != nil {
				n.log.Warn().Err(err).Str("product_id", p.ID).Msg("limitador de alertas no disponible, se envía la alerta")
			}
		default:
			ok, err := n.throttle.Allow(tctx, alertKey(kind, p.ID))
			if err != nil {
				n.log.Warn().Err(err).Str("product_id", p.ID).Msg("limitador de alertas no disponible, se envía la alerta")
				ok = true
			}
			if !ok {
				n.log.Debug().Str("alert", string(kind)).Str("product_id", p.ID).Msg("alerta omitida por ventana de espera")
				continue
			}
		}
		n.dispatch(Alert{
			Kind:        kind,
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    p.Quantity,
			Previous:    change.Previous,
			MinStock:    p.MinStock,
			MaxStock:    p.MaxStock,
			Context:     job.origin,
			At:          time.Now(),
		})
	}

	if p.MaxStock > 0 && !p.IsOverstock() && change.Previous > p.MaxStock {
		if _, err := n.throttle.Reset(tctx, alertKey(AlertOverstock, p.ID)); err != nil {
			n.log.Warn().Err(err).Str("product_id", p.ID).Msg("limitador de alertas no disponible")
		}
	}
}

func (n *AlertNotifier) dispatch(alert Alert) {
	subject, body := FormatAlert(alert)
	note := Notification{To: n.cfg.Recipients, Subject: subject, Body: body, Alert: alert}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.cfg.Timeout)
		defer cancel()
		for _, ch := range n.channels {
			n.deliver(ctx, ch, note)
		}
	}()
}

func (n *AlertNotifier) deliver(ctx context.Context, ch NotificationChannel, note Notification) {
	defer func() {
		if r := recover(); r != nil {
			n.log.Error().Interface("panic", r).Str("channel", ch.Name()).Msg("canal de alertas")
		}
	}()
	if err := ch.Send(ctx, note); err != nil {
		n.log.Warn().Err(err).
			Str("channel", ch.Name()).
			Str("alert", string(note.Alert.Kind)).
			Str("product_id", note.Alert.ProductID).
			Msg("no se pudo entregar la alerta de stock")
		return
	}
	n.log.Info().
		Str("channel", ch.Name()).
		Str("alert", string(note.Alert.Kind)).
		Str("product_id", note.Alert.ProductID).
		Int("quantity", note.Alert.Quantity).
		Msg("alerta de stock enviada")
}

// Wait espera los cambios encolados y las entregas en curso (apagado ordenado y tests).
func (n *AlertNotifier) Wait() {
	n.wg.Wait()
}
