package entity

import "slices"

// Clone копирует товар вместе со ступенями скидок, чтобы хранилище не отдавало наружу свои срезы
func (p Product) Clone() Product {
	p.Discounts = slices.Clone(p.Discounts)
	return p
}

func (o Order) Clone() Order {
	o.Items = slices.Clone(o.Items)
	if o.ExpectedDeliveryTime != nil {
		t := *o.ExpectedDeliveryTime
		o.ExpectedDeliveryTime = &t
	}
	return o
}
