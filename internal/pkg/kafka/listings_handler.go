package kafka

import (
	"Vitrin/internal/pkg/es"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

const listingsTable = "listings"

// ListingsHandler 把 listings 表的 binlog 同步到搜索索引
type ListingsHandler struct {
	listingESRepo es.ListingRepo
	batchSize     int
}

func NewListingsHandler(listingESRepo es.ListingRepo, batchSize int) *ListingsHandler {
	return &ListingsHandler{listingESRepo: listingESRepo, batchSize: batchSize}
}

func (s *ListingsHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("listing consumer setup")
	return nil
}

func (s *ListingsHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("listing consumer cleanup")
	return nil
}

func (s *ListingsHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	if err := pullMessageBatch(session, claim, s.batchSize, s.logic); err != nil {
		log.Error("topic-listing process batch error", "err", err)
		return err
	}
	return nil
}

func (s *ListingsHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	canalMsg, err := ToCanalMessage(msg, listingsTable)
	if err != nil {
		return err
	}
	return s.apply(ctx, canalMsg)
}

// apply 未发布、已删除的房源从索引中移除，其余按 Canal 时间戳作为版本写入
func (s *ListingsHandler) apply(ctx context.Context, canalMsg *CanalMessage) error {
	for _, row := range canalMsg.Data {
		id := StrToUint64(row["id"])
		if id == 0 {
			continue
		}

		if canalMsg.Type == DELETE || StrToBool(row["is_deleted"]) || !StrToBool(row["published"]) {
			if err := s.listingESRepo.DeleteListing(ctx, id); err != nil {
				return errors.Wrapf(err, "delete listing %d from index", id)
			}
			continue
		}

		doc, err := toListingES(row)
		if err != nil {
			log.WarnContext(ctx, "skip malformed listing row", "listing_id", id, "err", err)
			continue
		}
		if err = s.listingESRepo.IndexListing(ctx, doc, canalMsg.TS); err != nil {
			return errors.Wrapf(err, "index listing %d", id)
		}
	}
	return nil
}

func toListingES(row map[string]any) (*es.ListingES, error) {
	doc := &es.ListingES{
		ID:          StrToUint64(row["id"]),
		Kind:        StrToString(row["kind"]),
		Category:    StrToString(row["category"]),
		Title:       StrToString(row["title"]),
		Location:    StrToString(row["location"]),
		Description: StrToString(row["description"]),
		Area:        StrToFloat(row["area"]),
		Price:       StrToFloat(row["price"]),
		Year:        StrToInt(row["year"]),
		Featured:    StrToBool(row["featured"]),
		CreatedAt:   StrToDateTime(row["created_at"]),
		UpdatedAt:   StrToDateTime(row["updated_at"]),
	}

	if raw := StrToString(row["media"]); raw != "" {
		var media []string
		if err := json.Unmarshal([]byte(raw), &media); err != nil {
			return nil, errors.Wrap(err, "decode media")
		}
		if len(media) > 0 {
			doc.Cover = media[0]
		}
	}
	if raw := StrToString(row["specs"]); raw != "" {
		if err := json.Unmarshal([]byte(raw), &doc.Specs); err != nil {
			return nil, errors.Wrap(err, "decode specs")
		}
	}
	return doc, nil
}
