package sqlinline

const paymentColumns = `id, user_id, reference, purpose, subject_id, amount_minor, fee_minor, currency, phone, operator, status, gateway_reference, failure_reason, created_at, updated_at`

const QInsertPayment = `--sql 761bde0e-bef5-43e3-bdcb-cace220825e8
insert into payments (id, user_id, reference, purpose, subject_id, amount_minor, fee_minor, currency, phone, operator, status, created_at, updated_at)
values (gen_random_uuid(), nullif($1::text, '')::uuid, $2::text, $3::text, $4::uuid, $5::bigint, $6::bigint, $7::text, $8::text, $9::text, 'pending', now(), now())
returning ` + paymentColumns + `;
`

const QSelectPaymentByReference = `--sql 78bcec5c-df38-4ee5-8b93-dd3e63736faa
select ` + paymentColumns + `
from payments
where reference = $1::text
limit 1;
`

// QTransitionPayment only touches pending rows so terminal states are final.
const QTransitionPayment = `--sql 39eea22f-2e62-40bc-a3e2-b191fb0beeb8
update payments
set status = $2::text,
    gateway_reference = case when $3::text <> '' then $3::text else gateway_reference end,
    failure_reason = $4::text,
    updated_at = now()
where reference = $1::text and status = 'pending'
returning id;
`

const QListStalePendingPayments = `--sql 7ba4cd34-cabe-4909-8dcb-dbb61e314acf
select ` + paymentColumns + `
from payments
where status = 'pending' and created_at < $1::timestamptz
order by created_at asc
limit $2::int;
`
