package queue

import (
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/vocalia/voicedemo/internal/infra/http/middleware"
)

// CallReportSender é o contrato de notificação pro time comercial.
type CallReportSender interface {
	SendCallReport(payload CallResultPayload) error
}

type Worker struct {
	Channel *amqp.Channel
	Sender  CallReportSender
	Log     *logrus.Entry
}

func NewWorker(ch *amqp.Channel, sender CallReportSender, log *logrus.Entry) *Worker {
	return &Worker{
		Channel: ch,
		Sender:  sender,
		Log:     log,
	}
}

func (w *Worker) Start(queueName string) {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack (manual é mais seguro)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		w.Log.WithError(err).Fatal("falha ao registrar consumidor RabbitMQ")
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			var payload CallResultPayload
			if err := json.Unmarshal(d.Body, &payload); err != nil {
				w.Log.WithError(err).Error("payload inválido na fila de resultados")
				// Mensagem podre: rejeita sem requeue pra não travar a fila.
				d.Nack(false, false)
				continue
			}

			log := w.Log.WithFields(logrus.Fields{
				"lead_id": payload.LeadID,
				"call_id": payload.CallID,
				"status":  payload.Status,
			})

			middleware.RecordCallOutcome(payload.Status)

			if err := w.processResult(payload); err != nil {
				log.WithError(err).Error("falha ao notificar resultado da ligação")
				d.Nack(false, false)
			} else {
				log.Info("resultado da ligação notificado")
				d.Ack(false)
			}
		}
	}()

	w.Log.WithField("queue", queueName).Info("worker aguardando resultados de ligação")
	<-forever
}

func (w *Worker) processResult(payload CallResultPayload) error {
	if w.Sender == nil {
		// Sem sender configurado só registramos o desfecho.
		return nil
	}
	return w.Sender.SendCallReport(payload)
}
