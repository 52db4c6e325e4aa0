package qdrant

import (
	pb "github.com/qdrant/go-client/qdrant"

	"github.com/kailas-cloud/shelfsearch/internal/domain/catalog"
	"github.com/kailas-cloud/shelfsearch/internal/domain/search/filter"
)

// buildFilter translates a filter.Expression into Qdrant must conditions.
func buildFilter(expr filter.Expression) *pb.Filter {
	if expr.IsEmpty() {
		return nil
	}
	must := make([]*pb.Condition, 0, len(expr.Must()))
	for _, c := range expr.Must() {
		if fc := fieldCondition(c); fc != nil {
			must = append(must, &pb.Condition{ConditionOneOf: &pb.Condition_Field{Field: fc}})
		}
	}
	return &pb.Filter{Must: must}
}

func fieldCondition(c filter.Condition) *pb.FieldCondition {
	switch {
	case c.IsMatch():
		return &pb.FieldCondition{Key: c.Key(), Match: &pb.Match{
			MatchValue: &pb.Match_Keyword{Keyword: c.Match()},
		}}
	case c.IsAnyOf():
		return &pb.FieldCondition{Key: c.Key(), Match: &pb.Match{
			MatchValue: &pb.Match_Keywords{Keywords: &pb.RepeatedStrings{Strings: c.AnyOf()}},
		}}
	case c.IsFlag():
		v, _ := c.Flag()
		return &pb.FieldCondition{Key: c.Key(), Match: &pb.Match{
			MatchValue: &pb.Match_Boolean{Boolean: v},
		}}
	case c.IsRange():
		r := c.Range()
		return &pb.FieldCondition{Key: c.Key(), Range: &pb.Range{
			Gt: r.GT(), Gte: r.GTE(), Lt: r.LT(), Lte: r.LTE(),
		}}
	}
	return nil
}

// parsePayload maps a point payload onto index attributes. Missing or mistyped values stay zero.
func parsePayload(p map[string]*pb.Value) catalog.Attributes {
	a := catalog.Attributes{
		MerchantID: p[filter.FieldMerchantID].GetStringValue(),
		Category:   p[filter.FieldCategory].GetStringValue(),
		Brand:      p[filter.FieldBrand].GetStringValue(),
		InStock:    p[filter.FieldInStock].GetBoolValue(),
		Title:      p["title"].GetStringValue(),
		Image:      p["image"].GetStringValue(),
		URL:        p["url"].GetStringValue(),
	}

	if v := p[filter.FieldPrice]; v != nil {
		switch k := v.GetKind().(type) {
		case *pb.Value_DoubleValue:
			a.Price = k.DoubleValue
		case *pb.Value_IntegerValue:
			a.Price = float64(k.IntegerValue)
		}
	}

	for _, v := range p[filter.FieldCollections].GetListValue().GetValues() {
		if s := v.GetStringValue(); s != "" {
			a.Collections = append(a.Collections, s)
		}
	}
	return a
}
