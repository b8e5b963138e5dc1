package service

// entry - заказ в очереди вытеснения
type entry struct {
	orderID string
	// lastUsed - логическое время последнего обращения
	lastUsed uint64
	index    int
}

// accessQueue - min-куча по lastUsed, наверху самый давно не использованный заказ.
// Реализует heap.Interface
type accessQueue []*entry

func (q accessQueue) Len() int { return len(q) }

func (q accessQueue) Less(i, j int) bool {
	return q[i].lastUsed < q[j].lastUsed
}

func (q accessQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *accessQueue) Push(x any) {
	e := x.(*entry)
	e.index = len(*q)
	*q = append(*q, e)
}

func (q *accessQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil // избегаем утечки памяти
	e.index = -1
	*q = old[:n-1]
	return e
}
