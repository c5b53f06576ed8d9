package sqlinline

const QPlatformStats = `--sql fcdb61d1-a019-4bb6-b159-c5b0278e0b6d
select
    (select count(*) from users)::bigint as total_users,
    (select count(*) from subscriptions where status = 'active')::bigint as active_subscriptions,
    (select coalesce(sum(amount_minor), 0) from payments where status = 'successful' and purpose = 'subscription')::bigint as revenue_minor,
    (select coalesce(sum(amount_minor), 0) from donations where status = 'paid')::bigint as donations_minor,
    (select count(*) from funding_opportunities where deadline is null or deadline >= current_date)::bigint as funding_open,
    (select count(*) from notifications where status = 'queued')::bigint as notifications_queued;
`

const QUsersByAccountType = `--sql 147ce677-29c5-4ce3-abd5-5ba9776a2d7c
select account_type, count(*)::bigint
from users
group by account_type
order by account_type;
`
