package es

import (
	"context"
	"errors"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/versiontype"
	"github.com/goccy/go-json"
)

// MaxSearchDepth from+size 的上限
const MaxSearchDepth = 480

type ListingRepo interface {
	SearchListings(ctx context.Context, q ListingSearch) ([]*ListingES, int64, error)
	IndexListing(ctx context.Context, listing *ListingES, version int64) error
	DeleteListing(ctx context.Context, id uint64) error
}

type ListingRepoImpl struct {
	client *elasticsearch.TypedClient
}

func NewListingRepo(client *elasticsearch.TypedClient) ListingRepo {
	return &ListingRepoImpl{client: client}
}

// BuildListingQuery 关键词 multi_match，类型与分类作为过滤条件
func BuildListingQuery(q ListingSearch) *types.Query {
	boolQuery := &types.BoolQuery{}
	if q.Keyword != "" {
		boolQuery.Must = append(boolQuery.Must, types.Query{
			MultiMatch: &types.MultiMatchQuery{
				Query:  q.Keyword,
				Fields: []string{"title^3", "location^2", "description"},
			},
		})
	} else {
		boolQuery.Must = append(boolQuery.Must, types.Query{MatchAll: &types.MatchAllQuery{}})
	}
	if q.Kind != "" {
		boolQuery.Filter = append(boolQuery.Filter, types.Query{
			Term: map[string]types.TermQuery{"kind": {Value: q.Kind}},
		})
	}
	if q.Category != "" {
		boolQuery.Filter = append(boolQuery.Filter, types.Query{
			Term: map[string]types.TermQuery{"category": {Value: q.Category}},
		})
	}
	return &types.Query{Bool: boolQuery}
}

func (s *ListingRepoImpl) SearchListings(ctx context.Context, q ListingSearch) ([]*ListingES, int64, error) {
	if q.From >= MaxSearchDepth {
		return []*ListingES{}, 0, nil
	}
	if q.From+q.Size > MaxSearchDepth {
		q.Size = MaxSearchDepth - q.From
	}

	resp, err := s.client.Search().
		Index(ListingIndex).
		Query(BuildListingQuery(q)).
		From(q.From).
		Size(q.Size).
		Do(ctx)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if resp.Hits.Total != nil {
		total = resp.Hits.Total.Value
	}
	results := make([]*ListingES, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		if hit.Source_ == nil {
			continue
		}
		var doc ListingES
		if err = json.Unmarshal(hit.Source_, &doc); err != nil {
			continue
		}
		results = append(results, &doc)
	}
	return results, total, nil
}

// IndexListing 使用外部版本号写入，旧版本的变更会被忽略
func (s *ListingRepoImpl) IndexListing(ctx context.Context, listing *ListingES, version int64) error {
	_, err := s.client.Index(ListingIndex).
		Id(strconv.FormatUint(listing.ID, 10)).
		Document(listing).
		Version(strconv.FormatInt(version, 10)).
		VersionType(versiontype.External).
		Do(ctx)
	if err != nil {
		var e *types.ElasticsearchError
		if errors.As(err, &e) && e.Status == ConflictCode {
			return nil
		}
		return err
	}
	return nil
}

func (s *ListingRepoImpl) DeleteListing(ctx context.Context, id uint64) error {
	_, err := s.client.Delete(ListingIndex, strconv.FormatUint(id, 10)).Do(ctx)
	if err != nil {
		var e *types.ElasticsearchError
		if errors.As(err, &e) && e.Status == NotFoundCode {
			return nil
		}
		return err
	}
	return nil
}
